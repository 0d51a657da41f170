package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonEmpty(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func TestDefaultTokenizer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "hello world", []string{"hello", "world"}},
		{"punctuation runs", "a,.;b!?c", []string{"a", "b", "c"}},
		{"symbols", "x+y=z $5", []string{"x", "y", "z", "5"}},
		{"unicode punctuation", "«привет» — мир…", []string{"привет", "мир"}},
		{"case preserved", "Go GO go", []string{"Go", "GO", "go"}},
		{"only separators", " ,,, ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nonEmpty(DefaultTokenizer(tt.in)))
		})
	}
}

func TestWhitespaceTokenizer(t *testing.T) {
	assert.Equal(t, []string{"a,b", "c."}, WhitespaceTokenizer(" a,b \t c. "))
}

func TestLowercaseTokenizer(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, nonEmpty(LowercaseTokenizer("Hello, WORLD")))
}

func TestTokenizerByName(t *testing.T) {
	for _, name := range []string{"default", "whitespace", "LOWER"} {
		tok, err := TokenizerByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, tok, name)
	}

	tok, err := TokenizerByName("none")
	require.NoError(t, err)
	assert.Nil(t, tok)

	_, err = TokenizerByName("stemmer")
	assert.Error(t, err)
}
