package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Message directions as stored in the mensagens table.
const (
	DirecaoEntrada = "entrada"
	DirecaoSaida   = "saida"
)

// Mensagens stores conversation history lines.
type Mensagens struct {
	db *sqlx.DB
}

// NewMensagens returns a message repository bound to db.
func NewMensagens(db *sqlx.DB) *Mensagens {
	return &Mensagens{db: db}
}

// Salvar appends one message line. History is write-only from the bot's
// point of view; it exists for operational inspection.
func (r *Mensagens) Salvar(ctx context.Context, chatID int64, direcao, texto string) error {
	const query = `
		INSERT INTO mensagens (chat_id, direcao, texto)
		VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, chatID, direcao, texto); err != nil {
		return fmt.Errorf("salvar mensagem: %w", err)
	}
	return nil
}
