package document

import (
	"fmt"
	"regexp"
	"strings"
)

// Tokenizer turns one chunk of text into words. Empty words are ignored.
type Tokenizer func(chunk string) []string

// separatorRegex matches runs of punctuation and whitespace.
var separatorRegex = regexp.MustCompile(`[[:punct:]\p{P}\s]+`)

// DefaultTokenizer splits on runs of punctuation and whitespace.
// Case is preserved, so searches are exact.
func DefaultTokenizer(chunk string) []string {
	return separatorRegex.Split(chunk, -1)
}

// WhitespaceTokenizer splits on whitespace only, keeping punctuation
// attached to words.
func WhitespaceTokenizer(chunk string) []string {
	return strings.Fields(chunk)
}

// LowercaseTokenizer is DefaultTokenizer with every word lowercased.
func LowercaseTokenizer(chunk string) []string {
	words := DefaultTokenizer(chunk)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// Tokenizer names accepted by TokenizerByName.
const (
	TokenizerDefault    = "default"
	TokenizerWhitespace = "whitespace"
	TokenizerLowercase  = "lower"
	TokenizerNone       = "none"
)

// TokenizerByName resolves a built-in tokenizer. "none" and "" return nil,
// which makes each chunk a single word when a delimiter is configured.
func TokenizerByName(name string) (Tokenizer, error) {
	switch strings.ToLower(name) {
	case TokenizerDefault:
		return DefaultTokenizer, nil
	case TokenizerWhitespace:
		return WhitespaceTokenizer, nil
	case TokenizerLowercase:
		return LowercaseTokenizer, nil
	case TokenizerNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (use: default, whitespace, lower, none)", name)
	}
}
