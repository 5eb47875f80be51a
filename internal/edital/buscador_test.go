package edital

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paginaFixture = `<!doctype html>
<html><body>
  <div class="lista">
    <a href="/docs/edital-001.pdf">Edital de Leilão 001/2026</a>
    <a href="/docs/pregao-eletronico.pdf">Pregão Eletrônico 12/2026</a>
    <a href="/docs/manual-usuario.pdf">Manual do usuário</a>
    <a href="/noticias/institucional.html">Notícias</a>
  </div>
</body></html>`

func servirFixture(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuscarSeletorPadraoFiltraPorPalavraChave(t *testing.T) {
	srv := servirFixture(t, paginaFixture)

	b := NewBuscador(WithClient(srv.Client()))
	editais := b.Buscar(context.Background(), srv.URL, "")

	require.Len(t, editais, 2)
	assert.Equal(t, "Edital de Leilão 001/2026", editais[0].Titulo)
	assert.Equal(t, srv.URL+"/docs/edital-001.pdf", editais[0].URL)
	assert.Equal(t, "Pregão Eletrônico 12/2026", editais[1].Titulo)
	assert.Equal(t, srv.URL+"/docs/pregao-eletronico.pdf", editais[1].URL)
}

func TestBuscarSeletorCustomizadoIgnoraPalavraChave(t *testing.T) {
	srv := servirFixture(t, paginaFixture)

	b := NewBuscador(WithClient(srv.Client()))
	editais := b.Buscar(context.Background(), srv.URL, `div.lista a`)

	// Curated selectors are trusted as-is: every anchor comes back.
	require.Len(t, editais, 4)
	assert.Equal(t, srv.URL+"/noticias/institucional.html", editais[3].URL)
}

func TestBuscarTruncaNoMaximo(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		sb.WriteString(`<a href="/edital-` + string(rune('a'+i)) + `.pdf">Edital</a>`)
	}
	sb.WriteString("</body></html>")
	srv := servirFixture(t, sb.String())

	b := NewBuscador(WithClient(srv.Client()), WithMax(3))
	editais := b.Buscar(context.Background(), srv.URL, "")

	assert.Len(t, editais, 3)
}

func TestBuscarFalhaDeRedeRetornaVazio(t *testing.T) {
	srv := servirFixture(t, paginaFixture)
	srv.Close()

	b := NewBuscador()
	editais := b.Buscar(context.Background(), srv.URL, "")

	assert.Empty(t, editais)
}

func TestBuscarStatusNaoOKRetornaVazio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bloqueado", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	b := NewBuscador(WithClient(srv.Client()))
	assert.Empty(t, b.Buscar(context.Background(), srv.URL, ""))
}

func TestFormatarMensagem(t *testing.T) {
	msg := FormatarMensagem("Leilões SP", []Edital{
		{Titulo: "Edital 01", URL: "https://x.test/e1.pdf"},
	})
	assert.Contains(t, msg, "*Editais de Leilões SP:*")
	assert.Contains(t, msg, "[Edital 01](https://x.test/e1.pdf)")

	vazio := FormatarMensagem("Leilões SP", nil)
	assert.Contains(t, vazio, "Nenhum edital")
}
