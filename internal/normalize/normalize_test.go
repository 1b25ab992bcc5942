package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Hauptstraße", want: "hauptstraße"},
		{name: "strips diacritics", input: "Champs-Élysées", want: "champs elysees"},
		{name: "umlaut kept decomposed-free", input: "München", want: "munchen"},
		{name: "punctuation to spaces", input: "Lauterlech 14, Augsburg", want: "lauterlech 14 augsburg"},
		{name: "collapses whitespace", input: "  High   Street  ", want: "high street"},
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: ",;--", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"lauterlech", "augsburg"}, Tokens("Lauterlech, Augsburg"))
	assert.Nil(t, Tokens("   "))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(" ,. "))
	assert.False(t, IsBlank("a"))
}
