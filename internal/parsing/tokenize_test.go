package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple", "python java sql", []string{"python", "java", "sql"}},
		{"drops single characters", "a python c go", []string{"python", "go"}},
		{"lowercases", "Python", []string{"python"}},
		{"keeps digits and underscores", "k8s snake_case 42", []string{"k8s", "snake_case", "42"}},
		{"splits on punctuation", "c++/golang", []string{"golang"}},
		{"unicode letters", "café résumé", []string{"café", "résumé"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("python python java")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "python")
	assert.Contains(t, set, "java")
	assert.Empty(t, TokenSet(""))
}
