package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
)

// Sites persists the auction sites registered for notice scraping.
type Sites struct {
	db *sqlx.DB
}

// NewSites returns a site repository bound to db.
func NewSites(db *sqlx.DB) *Sites {
	return &Sites{db: db}
}

// Create registers a site and returns its ID. Seletor may be empty, in which
// case the default ".pdf" anchor rule applies during scraping.
func (r *Sites) Create(ctx context.Context, nome, url, seletor string) (int64, error) {
	const query = `
		INSERT INTO sites_leiloes (nome, url, seletor)
		VALUES ($1, $2, $3)
		RETURNING id`

	var sel sql.NullString
	if seletor != "" {
		sel = sql.NullString{String: seletor, Valid: true}
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, nome, url, sel); err != nil {
		return 0, fmt.Errorf("criar site: %w", err)
	}

	logger.Info(ctx, "service.sites", "sites.create",
		slog.Int64("site_id", id),
		slog.String("site", nome),
		slog.String("url", url),
	)
	return id, nil
}

// List returns every registered site ordered by name.
func (r *Sites) List(ctx context.Context) ([]Site, error) {
	const query = `SELECT * FROM sites_leiloes ORDER BY nome`

	var sites []Site
	if err := r.db.SelectContext(ctx, &sites, query); err != nil {
		return nil, fmt.Errorf("listar sites: %w", err)
	}
	return sites, nil
}

// Get returns one site by ID or ErrNaoEncontrado.
func (r *Sites) Get(ctx context.Context, id int64) (*Site, error) {
	const query = `SELECT * FROM sites_leiloes WHERE id = $1`

	var s Site
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNaoEncontrado
		}
		return nil, fmt.Errorf("buscar site: %w", err)
	}
	return &s, nil
}

// Count returns how many sites are registered. Used by the seeder to decide
// whether the default site list should be loaded.
func (r *Sites) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sites_leiloes`); err != nil {
		return 0, fmt.Errorf("contar sites: %w", err)
	}
	return n, nil
}
