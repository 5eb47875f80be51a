// Package login implements the two-step login flow (email, password)
// against stored credentials.
package login

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/session"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/validate"
)

// UsuarioFinder looks up stored credentials by email.
type UsuarioFinder interface {
	FindByEmail(ctx context.Context, email string) (*storage.Usuario, error)
}

// The same generic message covers unknown email and wrong password so the
// flow leaks nothing about which emails exist.
const msgCredenciaisInvalidas = "E-mail ou senha incorretos. Use /login para tentar novamente."

// Machine drives the login flow over the shared session store and marks
// successful chats in the auth registry.
type Machine struct {
	sessions *session.Store
	usuarios UsuarioFinder
	auth     *session.AuthRegistry
	agora    func() time.Time
}

// New builds a login machine.
func New(sessions *session.Store, usuarios UsuarioFinder, auth *session.AuthRegistry) *Machine {
	return &Machine{
		sessions: sessions,
		usuarios: usuarios,
		auth:     auth,
		agora:    time.Now,
	}
}

// Iniciar starts a login flow for the chat. An already-authenticated chat is
// rejected without creating a session.
func (m *Machine) Iniciar(chatID int64) string {
	if m.auth.Authenticated(chatID) {
		return "Você já está logado. Use /sair para encerrar a sessão."
	}
	m.sessions.Set(session.NewLogin(chatID, m.agora()))
	return "Informe o seu e-mail de cadastro:"
}

// Sair logs the chat out.
func (m *Machine) Sair(chatID int64) string {
	if m.auth.Logout(chatID) {
		return "Sessão encerrada. Até logo!"
	}
	return "Você não está logado."
}

// Processar advances the login flow one step. Lookup misses and password
// mismatches both destroy the session; the user restarts with /login.
func (m *Machine) Processar(ctx context.Context, chatID int64, texto string) string {
	sess := m.sessions.Get(chatID)
	if sess == nil || sess.Flow != session.FlowLogin {
		return "Nenhum login em andamento. Use /login para começar."
	}

	switch strings.ToLower(strings.TrimSpace(texto)) {
	case "cancelar", "/cancelar", "sair", "/sair":
		m.sessions.Delete(chatID)
		return "Login cancelado."
	}

	sess.Touch(m.agora())

	switch sess.Stage {
	case session.StageLoginEmail:
		email := strings.ToLower(strings.TrimSpace(texto))
		if !validate.Email(email) {
			m.sessions.Set(sess)
			return "E-mail inválido. Tente novamente:"
		}
		sess.Login.Email = email
		sess.Stage = session.StageLoginSenha
		m.sessions.Set(sess)
		return "Agora digite a sua senha:"

	case session.StageLoginSenha:
		m.sessions.Delete(chatID)

		u, err := m.usuarios.FindByEmail(ctx, sess.Login.Email)
		if err != nil {
			if !errors.Is(err, storage.ErrNaoEncontrado) {
				logger.Error(ctx, "login", "login.lookup_falhou",
					slog.Int64("chat_id", chatID),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
				return "Não consegui verificar as credenciais agora. Tente novamente mais tarde."
			}
			return msgCredenciaisInvalidas
		}

		if bcrypt.CompareHashAndPassword([]byte(u.SenhaHash), []byte(texto)) != nil {
			logger.Warn(ctx, "login", "login.senha_incorreta",
				slog.Int64("chat_id", chatID),
			)
			return msgCredenciaisInvalidas
		}

		m.auth.Login(chatID, u.ID)
		logger.Info(ctx, "login", "login.sucesso",
			slog.Int64("chat_id", chatID),
			slog.Int64("user_id", u.ID),
		)
		return "Login realizado com sucesso! Use /editais para ver os editais disponíveis."
	}

	m.sessions.Delete(chatID)
	logger.Warn(ctx, "login", "login.etapa_desconhecida",
		slog.Int64("chat_id", chatID),
		slog.String("stage", string(sess.Stage)),
	)
	return "Algo deu errado. Use /login para recomeçar."
}
