// Package markup converts user markdown into sanitized HTML.
package markup

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/lazynotes/internal/toc"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultIDPrefix is prepended to every id attribute in rendered output.
const DefaultIDPrefix = "ln-"

// Options configures a Renderer.
type Options struct {
	// IDPrefix is prepended to every id in the output. Empty means
	// DefaultIDPrefix; use NoIDPrefix to disable prefixing.
	IDPrefix string
}

// outputVersion changes whenever Render's output changes for the same input.
const outputVersion = "2"

// NoIDPrefix disables id prefixing when used as Options.IDPrefix.
const NoIDPrefix = "-"

// Document is a rendered note.
type Document struct {
	HTML string        `json:"html"`
	TOC  []toc.Heading `json:"toc"`
}

// Renderer turns markdown into HTML that is safe to embed and safe to feed
// to the toc extractors. A Renderer is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	prefix string
}

// New returns a Renderer.
func New(opts Options) *Renderer {
	prefix := opts.IDPrefix
	switch prefix {
	case "":
		prefix = DefaultIDPrefix
	case NoIDPrefix:
		prefix = ""
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		// Raw HTML is let through here and cleaned by the policy.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	return &Renderer{
		md:     md,
		policy: Policy(),
		prefix: prefix,
	}
}

// Render converts src to sanitized HTML.
func (r *Renderer) Render(src []byte) (string, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	if err := r.md.Convert(src, &buf, parser.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	clean := r.policy.SanitizeBytes(buf.Bytes())
	return string(finishIDs(clean, r.prefix)), nil
}

// Fingerprint identifies the output format of r. Two renderers with the
// same fingerprint produce the same HTML for the same source.
func (r *Renderer) Fingerprint() string {
	return "v" + outputVersion + ":" + r.prefix
}

// Document renders src and extracts its table of contents from the
// sanitized output.
func (r *Renderer) Document(src []byte) (Document, error) {
	out, err := r.Render(src)
	if err != nil {
		return Document{}, err
	}
	return Document{HTML: out, TOC: toc.Headings(out)}, nil
}
