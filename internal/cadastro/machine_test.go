package cadastro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielambrosim/sistema-bot-leil-o/internal/session"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/validate"
)

type fakeMailer struct {
	fail    bool
	sentTo  string
	sentCod string
}

func (f *fakeMailer) SendCode(_ context.Context, email, code string) error {
	if f.fail {
		return errors.New("smtp indisponivel")
	}
	f.sentTo = email
	f.sentCod = code
	return nil
}

type fakeUsuarios struct {
	err     error
	created []*storage.Usuario
}

func (f *fakeUsuarios) Create(_ context.Context, u *storage.Usuario) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, u)
	return int64(len(f.created)), nil
}

type fakeNotifier struct {
	avisos []string
}

func (f *fakeNotifier) NotificarAdmin(_ context.Context, texto string) error {
	f.avisos = append(f.avisos, texto)
	return nil
}

func newTestMachine(t *testing.T) (*Machine, *session.Store, *fakeMailer, *fakeUsuarios, *fakeNotifier) {
	t.Helper()
	st := session.NewStore()
	mailer := &fakeMailer{}
	usuarios := &fakeUsuarios{}
	notifier := &fakeNotifier{}
	m := New(st, usuarios, mailer, notifier, validate.ModeEstrito,
		WithCodeGenerator(func() string { return "123456" }),
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
	return m, st, mailer, usuarios, notifier
}

func texto(s string) Evento { return Evento{Kind: KindTexto, Texto: s} }
func foto(id string) Evento { return Evento{Kind: KindFoto, FotoID: id} }

const chatID = int64(1001)

func TestFluxoCompletoSemCNPJ(t *testing.T) {
	m, st, mailer, usuarios, notifier := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)

	m.Processar(ctx, chatID, texto("Ana Silva"))
	m.Processar(ctx, chatID, texto("ana@x.com"))
	assert.Equal(t, "ana@x.com", mailer.sentTo)
	assert.Equal(t, "123456", mailer.sentCod)

	m.Processar(ctx, chatID, texto("123456"))
	m.Processar(ctx, chatID, texto("52998224725"))
	m.Processar(ctx, chatID, texto("não"))
	m.Processar(ctx, chatID, texto("Rua A, 123"))
	m.Processar(ctx, chatID, foto("file-doc"))
	m.Processar(ctx, chatID, foto("file-comprovante"))
	m.Processar(ctx, chatID, texto("abcdef"))
	resp := m.Processar(ctx, chatID, texto("abcdef"))

	assert.Contains(t, resp.Texto, "concluído")
	require.Len(t, usuarios.created, 1)

	u := usuarios.created[0]
	assert.Equal(t, "Ana Silva", u.Nome)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.Equal(t, "52998224725", u.CPF)
	assert.False(t, u.CNPJ.Valid)
	assert.False(t, u.EnderecoCNPJ.Valid)
	assert.Equal(t, "Rua A, 123", u.EnderecoCPF)
	assert.Equal(t, "file-doc", u.DocumentoFoto)
	assert.Equal(t, "file-comprovante", u.ComprovanteFoto)
	assert.Equal(t, chatID, u.ChatID)

	assert.NotEqual(t, "abcdef", u.SenhaHash, "plaintext must never be stored")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.SenhaHash), []byte("abcdef")))

	assert.Nil(t, st.Get(chatID), "session removed after persistence")
	require.Len(t, notifier.avisos, 1)
	assert.Contains(t, notifier.avisos[0], "Ana Silva")
}

func TestFluxoComCNPJEEnderecoMesmo(t *testing.T) {
	m, _, _, usuarios, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Empresa Ltda Dono"))
	m.Processar(ctx, chatID, texto("dono@empresa.com"))
	m.Processar(ctx, chatID, texto("123456"))
	m.Processar(ctx, chatID, texto("529.982.247-25"))
	m.Processar(ctx, chatID, texto("Sim"))
	m.Processar(ctx, chatID, texto("11.222.333/0001-81"))
	m.Processar(ctx, chatID, texto("Av. Central, 500"))
	m.Processar(ctx, chatID, texto("mesmo"))
	m.Processar(ctx, chatID, foto("doc"))
	m.Processar(ctx, chatID, foto("comp"))
	m.Processar(ctx, chatID, texto("segredo1"))
	m.Processar(ctx, chatID, texto("segredo1"))

	require.Len(t, usuarios.created, 1)
	u := usuarios.created[0]
	require.True(t, u.CNPJ.Valid)
	assert.Equal(t, "11222333000181", u.CNPJ.String)
	require.True(t, u.EnderecoCNPJ.Valid)
	assert.Equal(t, "Av. Central, 500", u.EnderecoCNPJ.String, `"mesmo" copies the primary address`)
}

func TestValidacaoNaoAvancaEtapa(t *testing.T) {
	m, st, _, _, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)

	resp := m.Processar(ctx, chatID, texto("Ab"))
	assert.Contains(t, resp.Texto, "curto")
	assert.Equal(t, session.StageNome, st.Get(chatID).Stage)

	m.Processar(ctx, chatID, texto("Ana Silva"))
	resp = m.Processar(ctx, chatID, texto("sem-arroba"))
	assert.Contains(t, resp.Texto, "inválido")
	assert.Equal(t, session.StageEmail, st.Get(chatID).Stage)
}

func TestCodigoIncorretoReprompta(t *testing.T) {
	m, st, _, _, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))
	m.Processar(ctx, chatID, texto("ana@x.com"))

	resp := m.Processar(ctx, chatID, texto("000000"))
	assert.Contains(t, resp.Texto, "incorreto")
	assert.Equal(t, session.StageCodigo, st.Get(chatID).Stage)
}

func TestFalhaDeEnvioSeguraNaEtapaEmail(t *testing.T) {
	m, st, mailer, _, _ := newTestMachine(t)
	mailer.fail = true
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))
	resp := m.Processar(ctx, chatID, texto("ana@x.com"))

	assert.Contains(t, resp.Texto, "Não consegui enviar")
	sess := st.Get(chatID)
	require.NotNil(t, sess)
	assert.Equal(t, session.StageEmail, sess.Stage, "stage must not advance without a deliverable code")
	assert.Empty(t, sess.Cadastro.Codigo)
}

func TestTextoEmEtapaDeFotoReprompta(t *testing.T) {
	m, st, _, _, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))
	m.Processar(ctx, chatID, texto("ana@x.com"))
	m.Processar(ctx, chatID, texto("123456"))
	m.Processar(ctx, chatID, texto("52998224725"))
	m.Processar(ctx, chatID, texto("nao"))
	m.Processar(ctx, chatID, texto("Rua A, 123"))

	resp := m.Processar(ctx, chatID, texto("segue o documento"))
	assert.Contains(t, resp.Texto, "foto")
	assert.Equal(t, session.StageDocumento, st.Get(chatID).Stage)

	resp = m.Processar(ctx, chatID, foto("doc"))
	assert.Contains(t, resp.Texto, "comprovante")
}

func TestSenhasDiferentesVoltamParaSenha(t *testing.T) {
	m, st, _, usuarios, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))
	m.Processar(ctx, chatID, texto("ana@x.com"))
	m.Processar(ctx, chatID, texto("123456"))
	m.Processar(ctx, chatID, texto("52998224725"))
	m.Processar(ctx, chatID, texto("nao"))
	m.Processar(ctx, chatID, texto("Rua A, 123"))
	m.Processar(ctx, chatID, foto("doc"))
	m.Processar(ctx, chatID, foto("comp"))
	m.Processar(ctx, chatID, texto("abcdef"))

	resp := m.Processar(ctx, chatID, texto("outracoisa"))
	assert.Contains(t, resp.Texto, "não conferem")

	sess := st.Get(chatID)
	require.NotNil(t, sess)
	assert.Equal(t, session.StageSenha, sess.Stage, "mismatch re-enters the password stage, not the confirmation")
	assert.Empty(t, sess.Cadastro.Senha)
	assert.Empty(t, usuarios.created)
}

func TestEmailDuplicadoRemoveSessao(t *testing.T) {
	m, st, _, usuarios, notifier := newTestMachine(t)
	usuarios.err = storage.ErrEmailDuplicado
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))
	m.Processar(ctx, chatID, texto("ana@x.com"))
	m.Processar(ctx, chatID, texto("123456"))
	m.Processar(ctx, chatID, texto("52998224725"))
	m.Processar(ctx, chatID, texto("nao"))
	m.Processar(ctx, chatID, texto("Rua A, 123"))
	m.Processar(ctx, chatID, foto("doc"))
	m.Processar(ctx, chatID, foto("comp"))
	m.Processar(ctx, chatID, texto("abcdef"))
	resp := m.Processar(ctx, chatID, texto("abcdef"))

	assert.Contains(t, resp.Texto, "já possui cadastro")
	assert.Nil(t, st.Get(chatID), "failed persistence forces a clean restart")
	assert.Empty(t, notifier.avisos)
}

func TestCancelamentoEmQualquerEtapa(t *testing.T) {
	m, st, _, _, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))

	resp := m.Processar(ctx, chatID, texto("cancelar"))
	assert.Contains(t, resp.Texto, "cancelado")
	assert.Nil(t, st.Get(chatID))
}

func TestIniciarSubstituiFluxoExistente(t *testing.T) {
	m, st, _, _, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	m.Processar(ctx, chatID, texto("Ana Silva"))
	require.Equal(t, session.StageEmail, st.Get(chatID).Stage)

	m.Iniciar(chatID)
	sess := st.Get(chatID)
	assert.Equal(t, session.StageNome, sess.Stage)
	assert.Empty(t, sess.Cadastro.Nome)
}

func TestEtapaDesconhecidaDestroiSessao(t *testing.T) {
	m, st, _, _, _ := newTestMachine(t)
	ctx := context.Background()

	m.Iniciar(chatID)
	st.Get(chatID).Stage = session.Stage("cadastro.inexistente")

	resp := m.Processar(ctx, chatID, texto("qualquer"))
	assert.Contains(t, resp.Texto, "recomeçar")
	assert.Nil(t, st.Get(chatID))
}

func TestGerarCodigoDentroDaFaixa(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GerarCodigo()
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
