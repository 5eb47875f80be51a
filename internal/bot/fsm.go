package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
	tghelpers "github.com/danielambrosim/sistema-bot-leil-o/core/telegram/helpers"
	"github.com/danielambrosim/sistema-bot-leil-o/core/telegram/keyboard"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/cadastro"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/session"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
)

// flowManager bridges the message router to the two state machines. It
// implements the router's FSM contract: InProgress gates routing and
// ManagerHandler consumes the update.
type flowManager struct {
	sessions  *session.Store
	cadastro  *cadastro.Machine
	login     loginMachine
	mensagens *storage.Mensagens
}

// loginMachine is the subset of the login flow the manager needs.
type loginMachine interface {
	Processar(ctx context.Context, chatID int64, texto string) string
}

func (f *flowManager) InProgress(chatID int64) bool {
	return f.sessions.Get(chatID) != nil
}

// ManagerHandler serializes per chat, tags the event as text or photo and
// hands it to the owning flow, replying with the single produced message.
func (f *flowManager) ManagerHandler(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	chatID := chat.ID

	release := f.sessions.Acquire(chatID)
	defer release()

	sess := f.sessions.Get(chatID)
	if sess == nil {
		return nil
	}

	ctx := tghelpers.BuildContext(c)
	ev := eventoDe(c)

	f.gravarEntrada(ctx, c, ev, sess.Stage)

	switch sess.Flow {
	case session.FlowLogin:
		if ev.Kind != cadastro.KindTexto {
			return responder(c, cadastro.Resposta{Texto: "Envie o dado solicitado como texto."})
		}
		texto := f.login.Processar(ctx, chatID, ev.Texto)
		f.gravarSaida(ctx, chatID, texto)
		return responder(c, cadastro.Resposta{Texto: texto})
	default:
		resp := f.cadastro.Processar(ctx, chatID, ev)
		f.gravarSaida(ctx, chatID, resp.Texto)
		return responder(c, resp)
	}
}

// eventoDe tags the update kind up front; photo-only stages must never see
// the text path.
func eventoDe(c tele.Context) cadastro.Evento {
	if msg := c.Message(); msg != nil && msg.Photo != nil {
		return cadastro.Evento{Kind: cadastro.KindFoto, FotoID: msg.Photo.FileID}
	}
	return cadastro.Evento{Kind: cadastro.KindTexto, Texto: c.Text()}
}

func responder(c tele.Context, resp cadastro.Resposta) error {
	if resp.Texto == "" {
		return nil
	}
	switch resp.Teclado {
	case cadastro.TecladoSimNao:
		return tghelpers.SendText(c, resp.Texto, &tele.SendOptions{
			ReplyMarkup: keyboard.OneTimeReplyButtons([]string{"Sim", "Não"}),
		})
	case cadastro.TecladoRemover:
		return tghelpers.SendText(c, resp.Texto, &tele.SendOptions{
			ReplyMarkup: keyboard.RemoveKeyboard(),
		})
	}
	return tghelpers.SendText(c, resp.Texto)
}

func (f *flowManager) gravarEntrada(ctx context.Context, c tele.Context, ev cadastro.Evento, stage session.Stage) {
	if f.mensagens == nil {
		return
	}
	texto := ev.Texto
	switch {
	case ev.Kind == cadastro.KindFoto:
		texto = "[foto]"
	case stage == session.StageSenha, stage == session.StageSenhaConfirm, stage == session.StageLoginSenha:
		// Passwords never reach the history table.
		texto = "[senha]"
	}
	// History is best-effort; a write failure must not break the flow.
	chatID := c.Chat().ID
	if err := f.mensagens.Salvar(ctx, chatID, storage.DirecaoEntrada, texto); err != nil {
		logger.Warn(ctx, "service.mensagens", "historico.gravar_failed",
			slog.Int64("chat_id", chatID),
			slog.String("direcao", storage.DirecaoEntrada),
			slog.String("err", err.Error()),
		)
	}
}

func (f *flowManager) gravarSaida(ctx context.Context, chatID int64, texto string) {
	if f.mensagens == nil || texto == "" {
		return
	}
	if err := f.mensagens.Salvar(ctx, chatID, storage.DirecaoSaida, texto); err != nil {
		logger.Warn(ctx, "service.mensagens", "historico.gravar_failed",
			slog.Int64("chat_id", chatID),
			slog.String("direcao", storage.DirecaoSaida),
			slog.String("err", err.Error()),
		)
	}
}
