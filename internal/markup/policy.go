package markup

import "github.com/microcosm-cc/bluemonday"

var headingElements = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// Policy returns the sanitizer allow-list for rendered notes.
//
// The policy still lets title, dir and lang through on headings; Render
// strips those afterwards in finishIDs.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("id").OnElements(headingElements...)

	p.AllowElements("audio")
	p.AllowAttrs("src", "autoplay", "loop", "controls", "muted", "width").OnElements("video")
	p.AllowElements("video")

	return p
}
