package toc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// ErrInvalidInput is returned by HeadingIDs when the input is not HTML.
var ErrInvalidInput = errors.New("input is not html")

// Headings returns one entry per non-self-closing h1-h6 start tag in
// document order. It never fails; malformed input yields a partial or
// empty result.
func Headings(src string) []Heading {
	s := NewSink(headingTags...)
	s.Feed(strings.NewReader(src))

	headings := make([]Heading, 0, len(s.blocks))
	for _, b := range s.blocks {
		headings = append(headings, Heading{
			Level:     b.Level,
			ClassName: b.ClassName,
			ID:        b.ID,
			Text:      b.Text,
		})
	}
	return headings
}

// Nodes returns the h1-h6 and p blocks of src in document order, each with
// its first text run.
func Nodes(src string) []Node {
	s := NewSink(nodeTags...)
	s.Feed(strings.NewReader(src))

	nodes := make([]Node, 0, len(s.blocks))
	for _, b := range s.blocks {
		nodes = append(nodes, Node{Tag: b.Tag, Body: b.Text})
	}
	return nodes
}

// headingIDPattern matches a heading start tag carrying an id, with an
// optional class either side of it. Only valid for markup whose headings
// are written as `<hN [class=".."] id=".." [class=".."]>`.
var headingIDPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`<h([1-6])(?: class="[^"]*?")? id="(.+?)"(?: class="[^"]*?")?>`)
})

// HeadingIDs extracts (level, id) pairs from sanitized HTML. Headings
// without an id are skipped. It returns ErrInvalidInput when src does not
// look like HTML at all.
func HeadingIDs(src string) ([]HeadingID, error) {
	if !LooksLikeHTML(src) {
		return nil, fmt.Errorf("extract heading ids: %w", ErrInvalidInput)
	}

	matches := headingIDPattern().FindAllStringSubmatch(src, -1)
	ids := make([]HeadingID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, HeadingID{
			Level: int(m[1][0] - '0'),
			ID:    m[2],
		})
	}
	return ids, nil
}

// LooksLikeHTML reports whether the tokenizer finds at least one tag in s.
func LooksLikeHTML(s string) bool {
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}
