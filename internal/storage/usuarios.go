package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
)

const pgUniqueViolation = "23505"

// Usuarios persists and queries registered users.
type Usuarios struct {
	db *sqlx.DB
}

// NewUsuarios returns a user repository bound to db.
func NewUsuarios(db *sqlx.DB) *Usuarios {
	return &Usuarios{db: db}
}

// Create inserts a finished registration and returns its ID.
// A reused email maps to ErrEmailDuplicado.
func (r *Usuarios) Create(ctx context.Context, u *Usuario) (int64, error) {
	const query = `
		INSERT INTO usuarios
			(nome, email, cpf, cnpj, endereco_cpf, endereco_cnpj,
			 documento_foto, comprovante_foto, senha_hash, chat_id)
		VALUES
			(:nome, :email, :cpf, :cnpj, :endereco_cpf, :endereco_cnpj,
			 :documento_foto, :comprovante_foto, :senha_hash, :chat_id)
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			logger.Warn(ctx, "service.usuarios", "usuarios.create.duplicate",
				slog.String("email", u.Email),
			)
			return 0, ErrEmailDuplicado
		}
		return 0, fmt.Errorf("criar usuario: %w", err)
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("criar usuario: ler id: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("criar usuario: %w", err)
	}

	logger.Info(ctx, "service.usuarios", "usuarios.create",
		slog.Int64("user_id", id),
		slog.String("email", u.Email),
	)
	return id, nil
}

// FindByEmail returns the user with the given email or ErrNaoEncontrado.
func (r *Usuarios) FindByEmail(ctx context.Context, email string) (*Usuario, error) {
	const query = `SELECT * FROM usuarios WHERE email = $1`

	var u Usuario
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNaoEncontrado
		}
		return nil, fmt.Errorf("buscar usuario por email: %w", err)
	}
	return &u, nil
}

// LinkSite subscribes a user to a site's notices. Re-linking is a no-op.
func (r *Usuarios) LinkSite(ctx context.Context, usuarioID, siteID int64) error {
	const query = `
		INSERT INTO usuarios_sites (usuario_id, site_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, usuarioID, siteID); err != nil {
		return fmt.Errorf("vincular usuario a site: %w", err)
	}
	return nil
}

// ListChatIDsBySite returns the chat IDs of every user linked to the site,
// for outbound notice notifications.
func (r *Usuarios) ListChatIDsBySite(ctx context.Context, siteID int64) ([]int64, error) {
	const query = `
		SELECT u.chat_id
		FROM usuarios u
		JOIN usuarios_sites us ON us.usuario_id = u.id
		WHERE us.site_id = $1`

	var chatIDs []int64
	if err := r.db.SelectContext(ctx, &chatIDs, query, siteID); err != nil {
		return nil, fmt.Errorf("listar chats por site: %w", err)
	}
	return chatIDs, nil
}
