// Package session keeps the per-chat conversational state between inbound
// updates. Sessions live in process memory only; a restart drops every flow
// in progress, which is accepted.
package session

import "time"

// Flow identifies which state machine owns a session.
type Flow string

const (
	FlowCadastro Flow = "cadastro"
	FlowLogin    Flow = "login"
)

// Stage is a named step inside a flow. Stage values of the two flows are
// disjoint sets; a session holds stages of its own flow only.
type Stage string

// Cadastro stages, in walk order. CNPJ and EnderecoCNPJ are only visited
// when the user opts into a company registration.
const (
	StageNome         Stage = "cadastro.nome"
	StageEmail        Stage = "cadastro.email"
	StageCodigo       Stage = "cadastro.codigo"
	StageCPF          Stage = "cadastro.cpf"
	StageCNPJEscolha  Stage = "cadastro.cnpj_escolha"
	StageCNPJ         Stage = "cadastro.cnpj"
	StageEnderecoCPF  Stage = "cadastro.endereco_cpf"
	StageEnderecoCNPJ Stage = "cadastro.endereco_cnpj"
	StageDocumento    Stage = "cadastro.documento"
	StageComprovante  Stage = "cadastro.comprovante"
	StageSenha        Stage = "cadastro.senha"
	StageSenhaConfirm Stage = "cadastro.senha_confirma"
)

// Login stages.
const (
	StageLoginEmail Stage = "login.email"
	StageLoginSenha Stage = "login.senha"
)

// CadastroData accumulates the fields collected by the registration flow.
// Senha holds plaintext only while the flow is alive; it is hashed before
// anything is persisted.
type CadastroData struct {
	Nome            string
	Email           string
	Codigo          string
	CPF             string
	CNPJ            string
	EnderecoCPF     string
	EnderecoCNPJ    string
	DocumentoFoto   string
	ComprovanteFoto string
	Senha           string
}

// LoginData accumulates the fields collected by the login flow.
type LoginData struct {
	Email string
}

// Session is the tagged per-chat state. Exactly one of Cadastro/Login is
// meaningful, selected by Flow.
type Session struct {
	ChatID       int64
	Flow         Flow
	Stage        Stage
	Cadastro     CadastroData
	Login        LoginData
	LastActivity time.Time
}

// NewCadastro returns a fresh registration session positioned at the first stage.
func NewCadastro(chatID int64, now time.Time) *Session {
	return &Session{
		ChatID:       chatID,
		Flow:         FlowCadastro,
		Stage:        StageNome,
		LastActivity: now,
	}
}

// NewLogin returns a fresh login session positioned at the first stage.
func NewLogin(chatID int64, now time.Time) *Session {
	return &Session{
		ChatID:       chatID,
		Flow:         FlowLogin,
		Stage:        StageLoginEmail,
		LastActivity: now,
	}
}

// Touch records activity so the idle sweeper keeps the session alive.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}
