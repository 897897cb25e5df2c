package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailFormatValid(t *testing.T) {
	cases := map[string]bool{
		"ana@example.com":   true,
		"ana.b@mail.co.uk":  true,
		"":                  false,
		"ana":               false,
		"ana@localhost":     false,
		"Ana <ana@ex.com>":  false,
		"ana@@example.com":  false,
		" ana@example.com ": true,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsEmailFormatValid(in), in)
	}
}

func TestIsPhoneValid(t *testing.T) {
	cases := map[string]bool{
		"+55 11 99999-0000": true,
		"(11) 99999-0000":   true,
		"12345":             false,
		"+1-800-FLOWERS":    false,
		"11+999990000":      false,
		"":                  false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsPhoneValid(in), in)
	}
}

func TestHasVerifiableContact(t *testing.T) {
	assert.True(t, HasVerifiableContact("", "+5511999990000"))
	assert.True(t, HasVerifiableContact("ana@example.com", ""))
	assert.False(t, HasVerifiableContact("ana", "123"))
}
