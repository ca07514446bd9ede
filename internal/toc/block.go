// Package toc extracts table-of-contents headings and block nodes from
// sanitized HTML without building a DOM tree.
package toc

import "golang.org/x/net/html/atom"

// Block is one recognized block element seen in a token stream. It carries
// the superset of fields needed by both Headings and Nodes.
type Block struct {
	Tag       string
	Level     int     // 1-6 for headings, 0 otherwise
	ClassName *string // first class attribute, nil if absent
	ID        *string // first id attribute, nil if absent
	Text      *string // first character run after the start tag
}

// Heading is a table-of-contents entry.
type Heading struct {
	Level     int     `json:"level"`
	ClassName *string `json:"class_name,omitempty"`
	ID        *string `json:"id,omitempty"`
	Text      *string `json:"text,omitempty"`
}

// Node is a renderable block element (h1-h6 or p) with its first text run.
type Node struct {
	Tag  string  `json:"tag"`
	Body *string `json:"body,omitempty"`
}

// HeadingID pairs a heading rank with its id attribute.
type HeadingID struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
}

var (
	headingTags = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}
	nodeTags    = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.P}
)

// headingLevel maps a heading tag to its rank, or 0 for anything else.
func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}
