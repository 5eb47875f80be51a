// Package storage implements the Postgres persistence for users, auction
// sites and message history.
package storage

import (
	"database/sql"
	"errors"
	"time"
)

// ErrEmailDuplicado is returned when a registration reuses an existing email.
var ErrEmailDuplicado = errors.New("storage: email ja cadastrado")

// ErrNaoEncontrado is returned by lookups that find no row.
var ErrNaoEncontrado = errors.New("storage: registro nao encontrado")

// Usuario is a persisted registration. SenhaHash always holds a bcrypt hash,
// never plaintext.
type Usuario struct {
	ID              int64          `db:"id"`
	Nome            string         `db:"nome"`
	Email           string         `db:"email"`
	CPF             string         `db:"cpf"`
	CNPJ            sql.NullString `db:"cnpj"`
	EnderecoCPF     string         `db:"endereco_cpf"`
	EnderecoCNPJ    sql.NullString `db:"endereco_cnpj"`
	DocumentoFoto   string         `db:"documento_foto"`
	ComprovanteFoto string         `db:"comprovante_foto"`
	SenhaHash       string         `db:"senha_hash"`
	ChatID          int64          `db:"chat_id"`
	CriadoEm        time.Time      `db:"criado_em"`
}

// Site is a registered auction site to scrape notices from.
type Site struct {
	ID       int64          `db:"id"`
	Nome     string         `db:"nome"`
	URL      string         `db:"url"`
	Seletor  sql.NullString `db:"seletor"`
	CriadoEm time.Time      `db:"criado_em"`
}

// Mensagem is one stored line of conversation history.
type Mensagem struct {
	ID       int64     `db:"id"`
	ChatID   int64     `db:"chat_id"`
	Direcao  string    `db:"direcao"`
	Texto    string    `db:"texto"`
	CriadoEm time.Time `db:"criado_em"`
}
