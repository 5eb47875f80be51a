// Package cadastro implements the multi-step registration flow: identity
// data, an emailed verification code, optional company tax ID, document
// photos and password, finishing with a persisted user record.
package cadastro

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/mail"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/session"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/validate"
)

// Kind distinguishes inbound event types up front so photo-only stages never
// see text and vice versa.
type Kind int

const (
	KindTexto Kind = iota
	KindFoto
)

// Evento is one inbound chat event routed into the flow.
type Evento struct {
	Kind   Kind
	Texto  string
	FotoID string
}

// Teclado hints which reply keyboard should accompany the response; the
// machine itself knows nothing about the chat transport.
type Teclado int

const (
	TecladoNenhum Teclado = iota
	TecladoSimNao
	TecladoRemover
)

// Resposta is the single outbound message produced per inbound event.
type Resposta struct {
	Texto   string
	Teclado Teclado
}

// UsuarioCreator persists finished registrations.
type UsuarioCreator interface {
	Create(ctx context.Context, u *storage.Usuario) (int64, error)
}

// AdminNotifier tells the administrative chat about new registrations.
// A nil notifier disables the side effect.
type AdminNotifier interface {
	NotificarAdmin(ctx context.Context, texto string) error
}

// BcryptCost is the work factor applied to stored passwords.
const BcryptCost = 10

const nomeMinimo = 3
const enderecoMinimo = 8

// Machine drives the registration flow over the shared session store.
type Machine struct {
	sessions *session.Store
	usuarios UsuarioCreator
	mailer   mail.Sender
	notifier AdminNotifier
	modo     validate.Mode

	// geraCodigo is swappable in tests for a deterministic code.
	geraCodigo func() string
	agora      func() time.Time
}

// Option adjusts a Machine.
type Option func(*Machine)

// WithCodeGenerator replaces the verification-code source.
func WithCodeGenerator(gen func() string) Option {
	return func(m *Machine) { m.geraCodigo = gen }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.agora = now }
}

// New builds a registration machine.
func New(sessions *session.Store, usuarios UsuarioCreator, mailer mail.Sender, notifier AdminNotifier, modo validate.Mode, opts ...Option) *Machine {
	m := &Machine{
		sessions:   sessions,
		usuarios:   usuarios,
		mailer:     mailer,
		notifier:   notifier,
		modo:       modo,
		geraCodigo: GerarCodigo,
		agora:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GerarCodigo returns a 6-digit verification code uniform over
// 100000–999999.
func GerarCodigo() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// time-derived fallback keeps the flow usable.
		return fmt.Sprintf("%06d", 100000+time.Now().UnixNano()%900000)
	}
	return fmt.Sprintf("%06d", 100000+n.Int64())
}

// Iniciar starts a fresh registration for the chat, replacing any flow
// already in progress, and returns the first prompt.
func (m *Machine) Iniciar(chatID int64) Resposta {
	sess := session.NewCadastro(chatID, m.agora())
	m.sessions.Set(sess)
	return Resposta{Texto: "Vamos começar seu cadastro! Qual é o seu nome completo?"}
}

// Cancelar destroys the chat's registration session, if any.
func (m *Machine) Cancelar(chatID int64) (Resposta, bool) {
	sess := m.sessions.Get(chatID)
	if sess == nil || sess.Flow != session.FlowCadastro {
		return Resposta{}, false
	}
	m.sessions.Delete(chatID)
	return Resposta{Texto: "Cadastro cancelado. Use /cadastro para recomeçar.", Teclado: TecladoRemover}, true
}

func ehCancelamento(texto string) bool {
	switch strings.ToLower(strings.TrimSpace(texto)) {
	case "cancelar", "/cancelar", "sair", "/sair":
		return true
	}
	return false
}

// Processar advances the flow one step. Exactly one Resposta is produced per
// event; validation failures re-prompt without changing stage. The caller is
// responsible for per-chat serialization via the session store.
func (m *Machine) Processar(ctx context.Context, chatID int64, ev Evento) Resposta {
	sess := m.sessions.Get(chatID)
	if sess == nil || sess.Flow != session.FlowCadastro {
		return Resposta{Texto: "Nenhum cadastro em andamento. Use /cadastro para começar."}
	}

	if ev.Kind == KindTexto && ehCancelamento(ev.Texto) {
		resp, _ := m.Cancelar(chatID)
		return resp
	}

	sess.Touch(m.agora())

	resp := m.processarEtapa(ctx, sess, ev)

	// The terminal step removes the session itself; everything else keeps
	// the mutated state.
	if m.sessions.Get(chatID) != nil {
		m.sessions.Set(sess)
	}
	return resp
}

func (m *Machine) processarEtapa(ctx context.Context, sess *session.Session, ev Evento) Resposta {
	d := &sess.Cadastro

	switch sess.Stage {
	case session.StageNome:
		nome := strings.TrimSpace(ev.Texto)
		if ev.Kind != KindTexto || utf8.RuneCountInString(nome) < nomeMinimo {
			return Resposta{Texto: "Nome muito curto. Informe seu nome completo (mínimo 3 letras)."}
		}
		d.Nome = nome
		sess.Stage = session.StageEmail
		return Resposta{Texto: "Agora me informe o seu e-mail:"}

	case session.StageEmail:
		email := strings.ToLower(strings.TrimSpace(ev.Texto))
		if ev.Kind != KindTexto || !validate.Email(email) {
			return Resposta{Texto: "E-mail inválido. Tente novamente (ex.: nome@dominio.com)."}
		}
		codigo := m.geraCodigo()
		if err := m.mailer.SendCode(ctx, email, codigo); err != nil {
			m.logEtapa(ctx, sess, "cadastro.email.envio_falhou", err)
			return Resposta{Texto: "Não consegui enviar o código de verificação agora. Verifique o e-mail informado e envie-o novamente."}
		}
		d.Email = email
		d.Codigo = codigo
		sess.Stage = session.StageCodigo
		return Resposta{Texto: "Enviei um código de 6 dígitos para o seu e-mail. Digite-o aqui:"}

	case session.StageCodigo:
		if ev.Kind != KindTexto || strings.TrimSpace(ev.Texto) != d.Codigo {
			return Resposta{Texto: "Código incorreto. Confira o e-mail e digite novamente."}
		}
		sess.Stage = session.StageCPF
		return Resposta{Texto: "E-mail verificado! Agora informe o seu CPF (somente números):"}

	case session.StageCPF:
		if ev.Kind != KindTexto || !validate.CPF(ev.Texto, m.modo) {
			return Resposta{Texto: "CPF inválido. Digite os 11 números do seu CPF."}
		}
		d.CPF = validate.SomenteDigitos(ev.Texto)
		sess.Stage = session.StageCNPJEscolha
		return Resposta{Texto: "Deseja cadastrar também um CNPJ?", Teclado: TecladoSimNao}

	case session.StageCNPJEscolha:
		if ev.Kind != KindTexto {
			return Resposta{Texto: "Responda Sim ou Não.", Teclado: TecladoSimNao}
		}
		switch normalizarEscolha(ev.Texto) {
		case "sim":
			sess.Stage = session.StageCNPJ
			return Resposta{Texto: "Informe o CNPJ (somente números):", Teclado: TecladoRemover}
		case "nao":
			sess.Stage = session.StageEnderecoCPF
			return Resposta{Texto: "Informe o seu endereço completo:", Teclado: TecladoRemover}
		}
		return Resposta{Texto: "Não entendi. Responda Sim ou Não.", Teclado: TecladoSimNao}

	case session.StageCNPJ:
		if ev.Kind != KindTexto || !validate.CNPJ(ev.Texto, m.modo) {
			return Resposta{Texto: "CNPJ inválido. Digite os 14 números do CNPJ."}
		}
		d.CNPJ = validate.SomenteDigitos(ev.Texto)
		sess.Stage = session.StageEnderecoCPF
		return Resposta{Texto: "Informe o seu endereço completo:"}

	case session.StageEnderecoCPF:
		endereco := strings.TrimSpace(ev.Texto)
		if ev.Kind != KindTexto || utf8.RuneCountInString(endereco) < enderecoMinimo {
			return Resposta{Texto: "Endereço muito curto. Informe rua, número e cidade."}
		}
		d.EnderecoCPF = endereco
		if d.CNPJ != "" {
			sess.Stage = session.StageEnderecoCNPJ
			return Resposta{Texto: "Agora o endereço da empresa (ou responda \"mesmo\" para repetir o anterior):"}
		}
		sess.Stage = session.StageDocumento
		return Resposta{Texto: "Envie uma foto do seu documento de identidade:"}

	case session.StageEnderecoCNPJ:
		if ev.Kind != KindTexto {
			return Resposta{Texto: "Envie o endereço da empresa como texto (ou \"mesmo\")."}
		}
		endereco := strings.TrimSpace(ev.Texto)
		if strings.EqualFold(endereco, "mesmo") {
			endereco = d.EnderecoCPF
		} else if utf8.RuneCountInString(endereco) < enderecoMinimo {
			return Resposta{Texto: "Endereço muito curto. Informe rua, número e cidade (ou \"mesmo\")."}
		}
		d.EnderecoCNPJ = endereco
		sess.Stage = session.StageDocumento
		return Resposta{Texto: "Envie uma foto do seu documento de identidade:"}

	case session.StageDocumento:
		if ev.Kind != KindFoto || ev.FotoID == "" {
			return Resposta{Texto: "Preciso de uma foto do documento. Envie a imagem pelo chat."}
		}
		d.DocumentoFoto = ev.FotoID
		sess.Stage = session.StageComprovante
		return Resposta{Texto: "Documento recebido! Agora envie uma foto do comprovante de residência:"}

	case session.StageComprovante:
		if ev.Kind != KindFoto || ev.FotoID == "" {
			return Resposta{Texto: "Preciso de uma foto do comprovante de residência. Envie a imagem pelo chat."}
		}
		d.ComprovanteFoto = ev.FotoID
		sess.Stage = session.StageSenha
		return Resposta{Texto: "Quase lá! Escolha uma senha (mínimo 6 caracteres):"}

	case session.StageSenha:
		if ev.Kind != KindTexto || !validate.Senha(ev.Texto) {
			return Resposta{Texto: "Senha muito curta. Use pelo menos 6 caracteres."}
		}
		d.Senha = ev.Texto
		sess.Stage = session.StageSenhaConfirm
		return Resposta{Texto: "Digite a senha novamente para confirmar:"}

	case session.StageSenhaConfirm:
		if ev.Kind != KindTexto || ev.Texto != d.Senha {
			// Back to a fresh password, not just the confirmation.
			d.Senha = ""
			sess.Stage = session.StageSenha
			return Resposta{Texto: "As senhas não conferem. Escolha a senha novamente:"}
		}
		return m.persistir(ctx, sess)
	}

	// Stage outside the defined set is treated as corruption.
	m.logEtapa(ctx, sess, "cadastro.etapa_desconhecida", nil)
	m.sessions.Delete(sess.ChatID)
	return Resposta{Texto: "Algo deu errado com o seu cadastro. Use /cadastro para recomeçar."}
}

func (m *Machine) persistir(ctx context.Context, sess *session.Session) Resposta {
	d := &sess.Cadastro

	hash, err := bcrypt.GenerateFromPassword([]byte(d.Senha), BcryptCost)
	if err != nil {
		m.logEtapa(ctx, sess, "cadastro.hash_falhou", err)
		m.sessions.Delete(sess.ChatID)
		return Resposta{Texto: "Não consegui concluir o cadastro. Use /cadastro para tentar novamente."}
	}

	u := &storage.Usuario{
		Nome:            d.Nome,
		Email:           d.Email,
		CPF:             d.CPF,
		EnderecoCPF:     d.EnderecoCPF,
		DocumentoFoto:   d.DocumentoFoto,
		ComprovanteFoto: d.ComprovanteFoto,
		SenhaHash:       string(hash),
		ChatID:          sess.ChatID,
	}
	if d.CNPJ != "" {
		u.CNPJ = sql.NullString{String: d.CNPJ, Valid: true}
		u.EnderecoCNPJ = sql.NullString{String: d.EnderecoCNPJ, Valid: true}
	}

	id, err := m.usuarios.Create(ctx, u)
	if err != nil {
		m.logEtapa(ctx, sess, "cadastro.persistencia_falhou", err)
		m.sessions.Delete(sess.ChatID)
		if errors.Is(err, storage.ErrEmailDuplicado) {
			return Resposta{Texto: "Este e-mail já possui cadastro. Use /login para entrar."}
		}
		return Resposta{Texto: "Não consegui salvar o cadastro agora. Use /cadastro para tentar novamente."}
	}

	if m.notifier != nil {
		aviso := fmt.Sprintf("Novo cadastro: %s (%s)", d.Nome, d.Email)
		if err := m.notifier.NotificarAdmin(ctx, aviso); err != nil {
			m.logEtapa(ctx, sess, "cadastro.aviso_admin_falhou", err)
		}
	}

	logger.Info(ctx, "cadastro", "cadastro.concluido",
		slog.Int64("user_id", id),
		slog.String("email", d.Email),
	)
	m.sessions.Delete(sess.ChatID)
	return Resposta{Texto: "Cadastro concluído com sucesso! 🎉 Use /login para entrar."}
}

func (m *Machine) logEtapa(ctx context.Context, sess *session.Session, event string, err error) {
	attrs := []slog.Attr{
		slog.String("flow", string(sess.Flow)),
		slog.String("stage", string(sess.Stage)),
		slog.Int64("chat_id", sess.ChatID),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Error(ctx, "cadastro", event, attrs...)
		return
	}
	logger.Warn(ctx, "cadastro", event, attrs...)
}

func normalizarEscolha(texto string) string {
	switch strings.ToLower(strings.TrimSpace(texto)) {
	case "sim", "s", "yes":
		return "sim"
	case "não", "nao", "n", "no":
		return "nao"
	}
	return ""
}
