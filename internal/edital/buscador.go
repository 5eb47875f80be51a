// Package edital scrapes registered auction sites for downloadable notice
// documents. Lookup is best-effort: any network or parse failure yields an
// empty list rather than an error.
package edital

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
	"github.com/danielambrosim/sistema-bot-leil-o/core/telegram/format"
)

const (
	// SeletorPadrao collects anchors pointing straight at PDF files.
	SeletorPadrao = `a[href$=".pdf"]`

	defaultTimeout = 10 * time.Second
	defaultMax     = 5

	// Some portals answer bots with empty pages; a browser-like agent avoids
	// the trivial cases.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// palavrasChave filters generic PDF links down to notice-looking ones when
// the site has no curated selector.
var palavrasChave = regexp.MustCompile(`(?i)edital|licita|concorr|preg[aã]o`)

// Edital is one scraped notice link. Never persisted; produced fresh per lookup.
type Edital struct {
	Titulo string
	URL    string
}

// Buscador fetches and parses notice pages.
type Buscador struct {
	client  *http.Client
	timeout time.Duration
	max     int
}

// Option adjusts a Buscador.
type Option func(*Buscador)

// WithClient substitutes the HTTP client, mainly for tests.
func WithClient(c *http.Client) Option {
	return func(b *Buscador) { b.client = c }
}

// WithMax overrides how many notices a lookup returns at most.
func WithMax(n int) Option {
	return func(b *Buscador) {
		if n > 0 {
			b.max = n
		}
	}
}

// WithTimeout overrides the per-lookup fetch bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Buscador) {
		if d > 0 {
			b.timeout = d
			b.client.Timeout = d
		}
	}
}

// NewBuscador returns a scraper with bounded fetch time.
func NewBuscador(opts ...Option) *Buscador {
	b := &Buscador{
		client:  &http.Client{Timeout: defaultTimeout},
		timeout: defaultTimeout,
		max:     defaultMax,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Buscar fetches the site page and extracts notice links. With a custom
// seletor every matched element is trusted as-is; with the default selector
// a keyword filter on the visible text prunes unrelated PDF links. Relative
// targets are resolved against the page URL. Failures log and return nil.
func (b *Buscador) Buscar(ctx context.Context, pageURL, seletor string) []Edital {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	doc, err := b.fetch(ctx, pageURL)
	if err != nil {
		logger.Warn(ctx, "edital", "edital.fetch.fail",
			slog.String("url", pageURL),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	custom := strings.TrimSpace(seletor) != ""
	sel := SeletorPadrao
	if custom {
		sel = seletor
	}

	var editais []Edital
	doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		titulo := strings.TrimSpace(s.Text())
		if !custom && !palavrasChave.MatchString(titulo) {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		if titulo == "" {
			titulo = "Documento"
		}

		editais = append(editais, Edital{
			Titulo: titulo,
			URL:    base.ResolveReference(ref).String(),
		})
		return len(editais) < b.max
	})

	logger.Info(ctx, "edital", "edital.busca",
		slog.String("url", pageURL),
		slog.Int("editais", len(editais)),
		slog.Duration("took", logger.RoundMS(time.Since(start))),
	)
	return editais
}

func (b *Buscador) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status inesperado: %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// FormatarMensagem renders a notice list as a Markdown chat message.
func FormatarMensagem(siteNome string, editais []Edital) string {
	if len(editais) == 0 {
		return fmt.Sprintf("Nenhum edital encontrado em %s no momento.", siteNome)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Editais de %s:*\n", siteNome)
	for i, e := range editais {
		titulo, err := format.EscapeMarkdown(e.Titulo, format.MarkdownV1)
		if err != nil {
			titulo = e.Titulo
		}
		fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, titulo, e.URL)
	}
	return sb.String()
}
