// Package validate holds the pure input predicates used by the conversational
// flows: email shape, CPF/CNPJ (with configurable check-digit strictness) and
// password strength. All functions are total and never panic.
package validate

import (
	"regexp"
	"strings"
)

// Mode selects how strictly CPF/CNPJ values are verified.
type Mode string

const (
	// ModeEstrito verifies digit count plus the modulo-11 check digits.
	ModeEstrito Mode = "estrito"
	// ModeFormato only verifies digit count and the all-identical rejection.
	ModeFormato Mode = "formato"
)

// ParseMode normalizes a configured strictness value, defaulting to estrito.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModeFormato):
		return ModeFormato
	default:
		return ModeEstrito
	}
}

// SenhaMinima is the minimum accepted password length.
const SenhaMinima = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether s has a plausible local@domain.tld shape.
func Email(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// Senha reports whether the password meets the minimum length.
func Senha(s string) bool {
	return len(s) >= SenhaMinima
}

// SomenteDigitos strips everything that is not an ASCII digit, so users may
// type documents with the usual punctuation (000.000.000-00).
func SomenteDigitos(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CPF validates an individual taxpayer ID under the given mode.
func CPF(s string, mode Mode) bool {
	digits := SomenteDigitos(s)
	if len(digits) != 11 || allSame(digits) {
		return false
	}
	if mode == ModeFormato {
		return true
	}
	d1 := cpfCheckDigit(digits[:9], 10)
	d2 := cpfCheckDigit(digits[:10], 11)
	return int(digits[9]-'0') == d1 && int(digits[10]-'0') == d2
}

// CNPJ validates a company taxpayer ID under the given mode.
func CNPJ(s string, mode Mode) bool {
	digits := SomenteDigitos(s)
	if len(digits) != 14 || allSame(digits) {
		return false
	}
	if mode == ModeFormato {
		return true
	}
	d1 := cnpjCheckDigit(digits[:12])
	d2 := cnpjCheckDigit(digits[:13])
	return int(digits[12]-'0') == d1 && int(digits[13]-'0') == d2
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// cpfCheckDigit computes a CPF check digit over the prefix using descending
// weights starting at firstWeight (10 for the first digit, 11 for the second).
func cpfCheckDigit(prefix string, firstWeight int) int {
	sum := 0
	for i, r := range prefix {
		sum += int(r-'0') * (firstWeight - i)
	}
	resto := (sum * 10) % 11
	if resto == 10 || resto == 11 {
		return 0
	}
	return resto
}

// cnpjCheckDigit computes a CNPJ check digit; weights cycle 2..9 walking the
// prefix from its last digit to its first.
func cnpjCheckDigit(prefix string) int {
	weight := 2
	sum := 0
	for i := len(prefix) - 1; i >= 0; i-- {
		sum += int(prefix[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	resto := sum % 11
	if resto < 2 {
		return 0
	}
	return 11 - resto
}
