package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coretelegram "github.com/danielambrosim/sistema-bot-leil-o/core/telegram"
)

func TestRegisterCallbacks(t *testing.T) {
	a := &App{}
	reg := coretelegram.NewRegistry()
	require.NoError(t, a.registerCallbacks(reg))

	for _, key := range []string{cbBuscarEditais, cbCancelarFluxo} {
		_, ok := reg.GetCallback(key)
		assert.Truef(t, ok, "callback %q", key)
	}
}

func TestParseSitePayload(t *testing.T) {
	cases := []struct {
		payload string
		nome    string
		url     string
		ok      bool
	}{
		{"Leilões SP | https://leiloes.sp.gov.br/editais", "Leilões SP", "https://leiloes.sp.gov.br/editais", true},
		{"Prefeitura|http://prefeitura.test", "Prefeitura", "http://prefeitura.test", true},
		{"sem pipe https://x.test", "", "", false},
		{" | https://x.test", "", "", false},
		{"Nome | ftp://x.test", "", "", false},
		{"Nome | www.sem-esquema.com", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		nome, url, ok := parseSitePayload(tc.payload)
		assert.Equalf(t, tc.ok, ok, "payload %q", tc.payload)
		assert.Equal(t, tc.nome, nome)
		assert.Equal(t, tc.url, url)
	}
}
