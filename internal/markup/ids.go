package markup

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"
)

// slugIDs generates heading ids for a single document. Duplicates get a
// numeric suffix, e.g. "setup", "setup-1".
type slugIDs struct {
	seen map[string]bool
}

func newSlugIDs() *slugIDs {
	return &slugIDs{seen: make(map[string]bool)}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := slug.Make(string(value))
	if base == "" {
		base = "heading"
	}
	id := base
	for i := 1; s.seen[id]; i++ {
		id = fmt.Sprintf("%s-%d", base, i)
	}
	s.seen[id] = true
	return []byte(id)
}

func (s *slugIDs) Put(value []byte) {
	s.seen[string(value)] = true
}

// finishIDs rewrites every id attribute in src to start with prefix and
// drops every heading attribute other than the first id, so heading start
// tags come out as `<hN id="...">` or `<hN>`. All other bytes are copied
// through unchanged.
func finishIDs(src []byte, prefix string) []byte {
	var out bytes.Buffer
	out.Grow(len(src) + 64)
	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Keep whatever the tokenizer could not consume.
				out.Write(z.Raw())
			}
			return out.Bytes()
		}
		raw := z.Raw()
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}
		raw = append([]byte(nil), raw...)
		tok := z.Token()
		changed := false
		if slices.Contains(headingElements, tok.Data) {
			kept := headingAttrs(tok.Attr)
			changed = len(kept) != len(tok.Attr)
			tok.Attr = kept
		}
		for i, a := range tok.Attr {
			if a.Namespace == "" && a.Key == "id" && prefix != "" {
				tok.Attr[i].Val = prefix + a.Val
				changed = true
			}
		}
		if changed {
			out.WriteString(tok.String())
		} else {
			out.Write(raw)
		}
	}
}

// headingAttrs returns the first id attribute of attrs, if any.
func headingAttrs(attrs []html.Attribute) []html.Attribute {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == "id" {
			return []html.Attribute{a}
		}
	}
	return nil
}
