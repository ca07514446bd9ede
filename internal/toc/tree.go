package toc

import (
	"strings"

	"golang.org/x/net/html"
)

// Entry is a heading placed in the nested sidebar tree.
type Entry struct {
	Heading  Heading  `json:"heading"`
	Children []*Entry `json:"children,omitempty"`
}

// Nest arranges a flat heading list into a tree by level. A heading
// becomes the child of the nearest preceding heading with a lower level;
// skipped levels are not filled in.
func Nest(headings []Heading) []*Entry {
	type stackEntry struct {
		entry *Entry
		level int
	}

	// Level 0 root; every heading nests under it.
	root := &Entry{}
	stack := []stackEntry{{entry: root, level: 0}}

	for _, h := range headings {
		e := &Entry{Heading: h}
		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].entry
		parent.Children = append(parent.Children, e)
		stack = append(stack, stackEntry{entry: e, level: h.Level})
	}
	return root.Children
}

// RenderList renders entries as nested <ul> markup linking to heading ids.
func RenderList(entries []*Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	renderList(&b, entries)
	return b.String()
}

func renderList(b *strings.Builder, entries []*Entry) {
	b.WriteString("<ul>")
	for _, e := range entries {
		b.WriteString("<li>")
		var text string
		if e.Heading.Text != nil {
			text = html.EscapeString(strings.TrimSpace(*e.Heading.Text))
		}
		if e.Heading.ID != nil {
			b.WriteString(`<a href="#`)
			b.WriteString(html.EscapeString(*e.Heading.ID))
			b.WriteString(`">`)
			b.WriteString(text)
			b.WriteString("</a>")
		} else {
			b.WriteString(text)
		}
		if len(e.Children) > 0 {
			renderList(b, e.Children)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}
