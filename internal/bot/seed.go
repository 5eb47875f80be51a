package bot

import (
	"context"
	"fmt"
	"log/slog"

	corebootstrap "github.com/danielambrosim/sistema-bot-leil-o/core/bootstrap"
	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
	"github.com/danielambrosim/sistema-bot-leil-o/internal/storage"
)

// defaultSites is loaded on first start so /editais has something to offer
// before the admin registers real sites.
var defaultSites = []struct {
	Nome string
	URL  string
}{
	{"Licitações-e (Banco do Brasil)", "https://www.licitacoes-e.com.br"},
	{"Compras.gov.br", "https://www.gov.br/compras/pt-br"},
}

func (a *App) seedSites(ctx context.Context) error {
	seeder := corebootstrap.SeederFunc(func(ctx context.Context, st corebootstrap.Storage) error {
		sites, ok := st.(*storage.Sites)
		if !ok {
			return fmt.Errorf("bot: seed recebeu storage %T", st)
		}

		n, err := sites.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		for _, s := range defaultSites {
			if _, err := sites.Create(ctx, s.Nome, s.URL, ""); err != nil {
				return err
			}
		}
		logger.Info(ctx, "service.sites", "sites.seed",
			slog.Int("sites", len(defaultSites)),
		)
		return nil
	})
	return seeder.Seed(ctx, a.sites)
}
