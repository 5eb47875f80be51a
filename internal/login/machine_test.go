package login

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielambrosim/sistema-bot-leil-o/internal/session"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
)

type fakeFinder struct {
	porEmail map[string]*storage.Usuario
	err      error
	lookups  int
}

func (f *fakeFinder) FindByEmail(_ context.Context, email string) (*storage.Usuario, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.porEmail[email]
	if !ok {
		return nil, storage.ErrNaoEncontrado
	}
	return u, nil
}

const chatID = int64(2002)

func newTestMachine(t *testing.T, senha string) (*Machine, *session.Store, *session.AuthRegistry, *fakeFinder) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.MinCost)
	require.NoError(t, err)

	finder := &fakeFinder{porEmail: map[string]*storage.Usuario{
		"ana@x.com": {ID: 7, Email: "ana@x.com", SenhaHash: string(hash)},
	}}
	st := session.NewStore()
	auth := session.NewAuthRegistry()
	return New(st, finder, auth), st, auth, finder
}

func TestLoginComSucesso(t *testing.T) {
	m, st, auth, _ := newTestMachine(t, "abcdef")
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, "Ana@X.com")
	resp := m.Processar(ctx, chatID, "abcdef")

	assert.Contains(t, resp, "sucesso")
	id, ok := auth.UserID(chatID)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.Nil(t, st.Get(chatID), "login session destroyed on success")
}

func TestEmailInvalidoNaoConsultaCredenciais(t *testing.T) {
	m, st, _, finder := newTestMachine(t, "abcdef")
	ctx := context.Background()

	m.Iniciar(chatID)
	resp := m.Processar(ctx, chatID, "nao-eh-email")

	assert.Contains(t, resp, "inválido")
	assert.Equal(t, 0, finder.lookups)
	assert.Equal(t, session.StageLoginEmail, st.Get(chatID).Stage)
}

func TestEmailDesconhecidoMensagemGenerica(t *testing.T) {
	m, st, auth, _ := newTestMachine(t, "abcdef")
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, "ninguem@x.com")
	resp := m.Processar(ctx, chatID, "abcdef")

	assert.Equal(t, msgCredenciaisInvalidas, resp)
	assert.False(t, auth.Authenticated(chatID))
	assert.Nil(t, st.Get(chatID), "session destroyed, restart required")
}

func TestSenhaIncorretaMensagemGenerica(t *testing.T) {
	m, st, auth, _ := newTestMachine(t, "abcdef")
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, "ana@x.com")
	resp := m.Processar(ctx, chatID, "errada1")

	assert.Equal(t, msgCredenciaisInvalidas, resp,
		"unknown email and wrong password must be indistinguishable")
	assert.False(t, auth.Authenticated(chatID))
	assert.Nil(t, st.Get(chatID))
}

func TestFalhaDeInfraNaoAutentica(t *testing.T) {
	m, _, auth, finder := newTestMachine(t, "abcdef")
	finder.err = errors.New("conexao recusada")
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, "ana@x.com")
	resp := m.Processar(ctx, chatID, "abcdef")

	assert.Contains(t, resp, "mais tarde")
	assert.False(t, auth.Authenticated(chatID))
}

func TestLoginJaAutenticadoRejeitado(t *testing.T) {
	m, st, auth, _ := newTestMachine(t, "abcdef")

	auth.Login(chatID, 7)
	resp := m.Iniciar(chatID)

	assert.Contains(t, resp, "já está logado")
	assert.Nil(t, st.Get(chatID), "no session created")
}

func TestSair(t *testing.T) {
	m, _, auth, _ := newTestMachine(t, "abcdef")

	auth.Login(chatID, 7)
	assert.Contains(t, m.Sair(chatID), "encerrada")
	assert.False(t, auth.Authenticated(chatID))
	assert.Contains(t, m.Sair(chatID), "não está logado")
}
