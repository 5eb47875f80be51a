package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"ana@x.com", true},
		{"  ana@x.com  ", true},
		{"joao.silva@empresa.com.br", true},
		{"sem-arroba.com", false},
		{"dois@@x.com", false},
		{"ana@semponto", false},
		{"ana @x.com", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, Email(tc.in), "email %q", tc.in)
	}
}

func TestCPFEstrito(t *testing.T) {
	assert.True(t, CPF("52998224725", ModeEstrito))
	assert.True(t, CPF("529.982.247-25", ModeEstrito), "punctuation is stripped")

	assert.False(t, CPF("52998224724", ModeEstrito), "wrong second check digit")
	assert.False(t, CPF("52998224735", ModeEstrito), "wrong first check digit")
	assert.False(t, CPF("11111111111", ModeEstrito), "all identical digits")
	assert.False(t, CPF("5299822472", ModeEstrito), "too short")
	assert.False(t, CPF("529982247250", ModeEstrito), "too long")
	assert.False(t, CPF("", ModeEstrito))
}

func TestCPFFormato(t *testing.T) {
	// Format mode only checks digit count and the all-identical rule.
	assert.True(t, CPF("52998224724", ModeFormato))
	assert.False(t, CPF("11111111111", ModeFormato))
	assert.False(t, CPF("123", ModeFormato))
}

func TestCNPJEstrito(t *testing.T) {
	assert.True(t, CNPJ("11222333000181", ModeEstrito))
	assert.True(t, CNPJ("11.222.333/0001-81", ModeEstrito))

	assert.False(t, CNPJ("11222333000182", ModeEstrito), "wrong check digit")
	assert.False(t, CNPJ("00000000000000", ModeEstrito), "all identical digits")
	assert.False(t, CNPJ("1122233300018", ModeEstrito), "too short")
}

func TestCNPJFormato(t *testing.T) {
	assert.True(t, CNPJ("11222333000182", ModeFormato))
	assert.False(t, CNPJ("22222222222222", ModeFormato))
}

func TestSenha(t *testing.T) {
	assert.True(t, Senha("abcdef"))
	assert.True(t, Senha("uma senha longa"))
	assert.False(t, Senha("abcde"))
	assert.False(t, Senha(""))
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeFormato, ParseMode("formato"))
	assert.Equal(t, ModeFormato, ParseMode(" Formato "))
	assert.Equal(t, ModeEstrito, ParseMode("estrito"))
	assert.Equal(t, ModeEstrito, ParseMode(""))
	assert.Equal(t, ModeEstrito, ParseMode("qualquer"))
}
