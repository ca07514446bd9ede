package toc

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sink consumes tokens from a streaming tokenizer and accumulates the
// blocks whose start tag is in its tracked set.
//
// Text only ever attaches to the most recently opened block, i.e. the last
// element of the accumulated slice. This is document-order proximity, not
// element nesting.
type Sink struct {
	tracked map[atom.Atom]bool
	blocks  []Block
}

// NewSink returns a sink tracking the given tags.
func NewSink(tags ...atom.Atom) *Sink {
	tracked := make(map[atom.Atom]bool, len(tags))
	for _, t := range tags {
		tracked[t] = true
	}
	return &Sink{tracked: tracked}
}

// ProcessToken handles a single token. Tokens other than non-self-closing
// start tags and text are ignored.
func (s *Sink) ProcessToken(tok html.Token) {
	switch tok.Type {
	case html.StartTagToken:
		if !s.tracked[tok.DataAtom] {
			return
		}
		s.blocks = append(s.blocks, Block{
			Tag:       tok.Data,
			Level:     headingLevel(tok.DataAtom),
			ClassName: findAttr(tok.Attr, "class"),
			ID:        findAttr(tok.Attr, "id"),
		})
	case html.TextToken:
		if len(s.blocks) == 0 {
			return
		}
		last := &s.blocks[len(s.blocks)-1]
		if last.Text != nil {
			return
		}
		if tok.Data == "" {
			// An empty run right after the start tag drops the whole entry.
			s.blocks = s.blocks[:len(s.blocks)-1]
			return
		}
		text := tok.Data
		last.Text = &text
	}
}

// Blocks returns the accumulated blocks in document order.
func (s *Sink) Blocks() []Block {
	return s.blocks
}

// Feed tokenizes r to the end and hands every token to the sink. Read and
// tokenizer errors end the scan; whatever was accumulated is kept.
func (s *Sink) Feed(r io.Reader) {
	z := html.NewTokenizer(r)
	for {
		if z.Next() == html.ErrorToken {
			return
		}
		s.ProcessToken(z.Token())
	}
}

func findAttr(attrs []html.Attribute, key string) *string {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == key {
			v := a.Val
			return &v
		}
	}
	return nil
}
