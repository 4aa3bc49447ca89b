package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Spring Stamp Rally", "spring-stamp-rally"},
		{"punctuation", "Spring Stamp Rally!", "spring-stamp-rally"},
		{"extra spaces", "Hello   World", "hello-world"},
		{"leading trailing", "  --Sale--  ", "sale"},
		{"already slugged", "summer-sale", "summer-sale"},
		{"numbers kept", "2x Points Weekend", "2x-points-weekend"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}
