package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNameLower(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gold Plan", "gold plan"},
		{"  Gold   Plan  ", "gold plan"},
		{"Café Crème", "cafe creme"},
		{"ＧＯＬＤ", "gold"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNameLower(tt.in), "input %q", tt.in)
	}
}

func TestSearchTokens(t *testing.T) {
	tokens := SearchTokens("Gold Plan", "Gold Plan Deluxe")
	assert.Equal(t, []string{"gold plan", "gold", "plan", "gold plan deluxe", "deluxe"}, tokens)

	assert.Empty(t, SearchTokens("", "  "))
}
