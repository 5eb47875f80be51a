package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/danielambrosim/sistema-bot-leil-o/core/buildinfo"
	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
	coretelegram "github.com/danielambrosim/sistema-bot-leil-o/core/telegram"
	"github.com/danielambrosim/sistema-bot-leil-o/core/telegram/callbacks"
	"github.com/danielambrosim/sistema-bot-leil-o/core/telegram/commands"
	tghelpers "github.com/danielambrosim/sistema-bot-leil-o/core/telegram/helpers"
	"github.com/danielambrosim/sistema-bot-leil-o/core/telegram/keyboard"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/edital"
)

const (
	cbBuscarEditais = "buscar_editais"
	cbCancelarFluxo = "cancelar_fluxo"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Mensagem de boas-vindas",
	})
	reg.RegisterCommand("/cadastro", commands.Command{
		Handler:     a.handleCadastro,
		Description: "Iniciar um novo cadastro",
	})
	reg.RegisterCommand("/login", commands.Command{
		Handler:     a.handleLogin,
		Description: "Entrar com e-mail e senha",
	})
	reg.RegisterCommand("/sair", commands.Command{
		Handler:     a.handleSair,
		Description: "Encerrar a sessão",
	})
	reg.RegisterCommand("/cancelar", commands.Command{
		Handler:     a.handleCancelar,
		Description: "Cancelar o fluxo em andamento",
	})
	reg.RegisterCommand("/editais", commands.Command{
		Handler:     a.handleEditais,
		Description: "Listar sites de leilão e buscar editais",
	})
	reg.RegisterCommand("/adicionarsite", commands.Command{
		Handler:     a.handleAdicionarSite,
		Description: "Registrar um site de leilão (admin)",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/ajuda", commands.Command{
		Handler:     a.handleAjuda,
		Description: "Lista de comandos",
		Aliases:     []string{"/help"},
	})
	reg.RegisterCommand("/sobre", commands.Command{
		Handler:     a.handleSobre,
		Description: "Sobre este bot",
		Hidden:      true,
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	if err := reg.RegisterCallback(cbBuscarEditais, a.handleBuscarEditais); err != nil {
		return err
	}
	return reg.RegisterCallback(cbCancelarFluxo, a.handleCancelarFluxo)
}

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendMD(c,
		"Olá! 👋 Eu distribuo *editais de leilão* dos sites cadastrados.\n\n"+
			"Use /cadastro para criar a sua conta ou /login se já tiver uma.\n"+
			"Depois de logado, /editais mostra os sites disponíveis.")
}

func (a *App) handleAjuda(c tele.Context) error {
	return tghelpers.SendMD(c,
		"*Comandos disponíveis:*\n"+
			"/cadastro — criar uma conta\n"+
			"/login — entrar\n"+
			"/sair — encerrar a sessão\n"+
			"/editais — buscar editais nos sites cadastrados\n"+
			"/cancelar — cancelar o fluxo em andamento")
}

func (a *App) handleSobre(c tele.Context) error {
	return tghelpers.SendText(c, fmt.Sprintf(
		"Bot de editais de leilão\nversão %s (%s)", buildinfo.Version, buildinfo.Commit))
}

func (a *App) handleCadastro(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if a.auth.Authenticated(chat.ID) {
		return tghelpers.SendText(c, "Você já está logado. Use /sair antes de criar outro cadastro.")
	}

	release := a.sessions.Acquire(chat.ID)
	defer release()

	resp := a.cadastro.Iniciar(chat.ID)
	return tghelpers.SendText(c, resp.Texto, &tele.SendOptions{
		ReplyMarkup: keyboard.SingleCancelMarkup(cbCancelarFluxo),
	})
}

func (a *App) handleLogin(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	release := a.sessions.Acquire(chat.ID)
	defer release()

	texto := a.login.Iniciar(chat.ID)
	if a.auth.Authenticated(chat.ID) {
		return tghelpers.SendText(c, texto)
	}
	return tghelpers.SendText(c, texto, &tele.SendOptions{
		ReplyMarkup: keyboard.SingleCancelMarkup(cbCancelarFluxo),
	})
}

func (a *App) handleSair(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	return tghelpers.SendText(c, a.login.Sair(chat.ID))
}

func (a *App) handleCancelar(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	release := a.sessions.Acquire(chat.ID)
	defer release()

	if resp, ok := a.cadastro.Cancelar(chat.ID); ok {
		return responder(c, resp)
	}
	if sess := a.sessions.Get(chat.ID); sess != nil {
		a.sessions.Delete(chat.ID)
		return tghelpers.SendText(c, "Fluxo cancelado.")
	}
	return tghelpers.SendText(c, "Nada para cancelar no momento.")
}

// handleCancelarFluxo answers the inline cancel button by editing the prompt
// message in place.
func (a *App) handleCancelarFluxo(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	release := a.sessions.Acquire(chat.ID)
	defer release()

	if resp, ok := a.cadastro.Cancelar(chat.ID); ok {
		return tghelpers.EditOrSendMD(c, resp.Texto)
	}
	if sess := a.sessions.Get(chat.ID); sess != nil {
		a.sessions.Delete(chat.ID)
		return tghelpers.EditOrSendMD(c, "Fluxo cancelado.")
	}
	return tghelpers.EditOrSendMD(c, "Nada para cancelar no momento.")
}

func (a *App) handleEditais(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	sites, err := a.sites.List(ctx)
	if err != nil {
		return tghelpers.SendText(c, "Não consegui listar os sites agora. Tente novamente mais tarde.")
	}
	if len(sites) == 0 {
		return tghelpers.SendText(c, "Nenhum site de leilão cadastrado ainda.")
	}

	btns := make([]keyboard.InlineBtn, 0, len(sites))
	for _, s := range sites {
		btns = append(btns, keyboard.InlineBtn{
			Text:   s.Nome,
			Unique: cbBuscarEditais,
			Data:   fmt.Sprintf("%d", s.ID),
		})
	}
	return tghelpers.SendMD(c, "*Escolha um site para buscar editais:*", keyboard.InlineButtons(btns))
}

func (a *App) handleBuscarEditais(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	siteID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Não reconheci esse site. Use /editais novamente.")
	}

	site, err := a.sites.Get(ctx, siteID)
	if err != nil {
		return tghelpers.SendText(c, "Site não encontrado. Use /editais para ver a lista atual.")
	}

	// An authenticated user who consults a site gets linked to it for
	// future notice notifications. The lookup still proceeds on failure.
	if chat := c.Chat(); chat != nil {
		if usuarioID, ok := a.auth.UserID(chat.ID); ok {
			if err := a.usuarios.LinkSite(ctx, usuarioID, siteID); err != nil {
				logger.Warn(ctx, "service.usuarios", "site.link_failed",
					slog.Int64("chat_id", chat.ID),
					slog.Int64("usuario_id", usuarioID),
					slog.Int64("site_id", siteID),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	// The site list message becomes the progress notice and then the result.
	_ = tghelpers.EditMD(c, fmt.Sprintf("Buscando editais em %s…", site.Nome))

	editais := a.buscador.Buscar(ctx, site.URL, site.Seletor.String)
	return tghelpers.EditOrSendMD(c, edital.FormatarMensagem(site.Nome, editais))
}

// handleAdicionarSite registers a site from a "nome | url" payload. Only the
// admin route wrapper lets this handler run.
func (a *App) handleAdicionarSite(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	const uso = "Uso: /adicionarsite Nome do site | https://exemplo.com/editais"

	payload := strings.TrimSpace(c.Message().Payload)
	nome, url, ok := parseSitePayload(payload)
	if !ok {
		return tghelpers.SendText(c, uso)
	}

	id, err := a.sites.Create(ctx, nome, url, "")
	if err != nil {
		return tghelpers.SendText(c, "Não consegui registrar o site. Tente novamente.")
	}
	return tghelpers.SendText(c, fmt.Sprintf("Site %q registrado com o ID %d.", nome, id))
}

func parseSitePayload(payload string) (nome, url string, ok bool) {
	partes := strings.SplitN(payload, "|", 2)
	if len(partes) != 2 {
		return "", "", false
	}
	nome = strings.TrimSpace(partes[0])
	url = strings.TrimSpace(partes[1])
	if nome == "" {
		return "", "", false
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", "", false
	}
	return nome, url, true
}
