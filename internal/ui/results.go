package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// SearchResult is one answered query.
type SearchResult struct {
	Word    string   `json:"word"`
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
}

// NewSearchResult builds a SearchResult.
func NewSearchResult(word string, matches []string) SearchResult {
	if matches == nil {
		matches = []string{}
	}
	return SearchResult{Word: word, Matches: matches, Count: len(matches)}
}

// ResultRenderer prints search results.
type ResultRenderer struct {
	out    io.Writer
	styles Styles
}

// NewResultRenderer creates a result renderer.
func NewResultRenderer(out io.Writer, noColor bool) *ResultRenderer {
	return &ResultRenderer{out: out, styles: GetStyles(noColor)}
}

// Render prints one matching path per line, or a note when nothing matched.
func (r *ResultRenderer) Render(res SearchResult) error {
	if res.Count == 0 {
		_, err := fmt.Fprintf(r.out, "%s\n", r.styles.Dim.Render(fmt.Sprintf("no files contain %q", res.Word)))
		return err
	}
	for _, m := range res.Matches {
		if _, err := fmt.Fprintln(r.out, r.styles.Match.Render(m)); err != nil {
			return err
		}
	}
	return nil
}

// RenderJSON outputs the result as JSON.
func (r *ResultRenderer) RenderJSON(res SearchResult) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res)
}
