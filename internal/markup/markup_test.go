package markup

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/lazynotes/internal/toc"
	"github.com/google/go-cmp/cmp"
)

func parse(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return doc
}

func render(t *testing.T, r *Renderer, src string) string {
	t.Helper()
	out, err := r.Render([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestRender_HeadingIDsArePrefixed(t *testing.T) {
	out := render(t, New(Options{}), "# Hello World\n\nSome text.\n\n## Second Part\n")
	doc := parse(t, out)

	if got := doc.Find("h1").AttrOr("id", ""); got != "ln-hello-world" {
		t.Errorf("expected h1 id %q, got %q", "ln-hello-world", got)
	}
	if got := doc.Find("h2").AttrOr("id", ""); got != "ln-second-part" {
		t.Errorf("expected h2 id %q, got %q", "ln-second-part", got)
	}
	if got := doc.Find("p").Text(); got != "Some text." {
		t.Errorf("expected paragraph %q, got %q", "Some text.", got)
	}
}

func TestRender_DuplicateHeadings(t *testing.T) {
	out := render(t, New(Options{}), "## Setup\n\n## Setup\n\n## Setup\n")
	var ids []string
	parse(t, out).Find("h2").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("id", ""))
	})
	want := []string{"ln-setup", "ln-setup-1", "ln-setup-2"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_CustomAndDisabledPrefix(t *testing.T) {
	out := render(t, New(Options{IDPrefix: "note-"}), "# Title\n")
	if got := parse(t, out).Find("h1").AttrOr("id", ""); got != "note-title" {
		t.Errorf("expected %q, got %q", "note-title", got)
	}

	out = render(t, New(Options{IDPrefix: NoIDPrefix}), "# Title\n")
	if got := parse(t, out).Find("h1").AttrOr("id", ""); got != "title" {
		t.Errorf("expected %q, got %q", "title", got)
	}
}

func TestRender_StripsUnsafeContent(t *testing.T) {
	src := "<script>alert('x')</script>\n\n# Title\n\n<a href=\"javascript:alert(1)\">bad</a> <img src=x onerror=alert(1)>\n"
	out := render(t, New(Options{}), src)
	doc := parse(t, out)

	if doc.Find("script").Length() != 0 {
		t.Errorf("expected script to be removed: %s", out)
	}
	if strings.Contains(out, "alert") {
		t.Errorf("expected no script payload in output: %s", out)
	}
	if _, ok := doc.Find("a").Attr("href"); ok {
		t.Errorf("expected javascript href to be dropped: %s", out)
	}
}

func TestRender_HeadingClassRemoved(t *testing.T) {
	out := render(t, New(Options{}), "<h2 class=\"fancy\" id=\"raw\">Raw</h2>\n")
	h2 := parse(t, out).Find("h2")
	if _, ok := h2.Attr("class"); ok {
		t.Errorf("expected class to be removed: %s", out)
	}
	if got := h2.AttrOr("id", ""); got != "ln-raw" {
		t.Errorf("expected id %q, got %q", "ln-raw", got)
	}
}

func TestRender_MediaAllowList(t *testing.T) {
	src := "<video src=\"/resources/clip.mp4\" controls muted width=\"320\" onclick=\"evil()\"></video>\n\n<audio>sound</audio>\n"
	out := render(t, New(Options{}), src)
	doc := parse(t, out)

	video := doc.Find("video")
	if video.Length() != 1 {
		t.Fatalf("expected one video element: %s", out)
	}
	for _, attr := range []string{"src", "controls", "muted", "width"} {
		if _, ok := video.Attr(attr); !ok {
			t.Errorf("expected video attribute %q to survive: %s", attr, out)
		}
	}
	if _, ok := video.Attr("onclick"); ok {
		t.Errorf("expected onclick to be removed: %s", out)
	}
	if doc.Find("audio").Length() != 1 {
		t.Errorf("expected audio element to survive: %s", out)
	}
}

func TestRender_GFM(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n"
	out := render(t, New(Options{}), src)
	if parse(t, out).Find("table td").Length() != 2 {
		t.Errorf("expected a two-cell table row: %s", out)
	}
	if strings.Contains(out, "~~") {
		t.Errorf("expected strikethrough markers to be consumed: %s", out)
	}
}

func TestDocument_TOC(t *testing.T) {
	d, err := New(Options{}).Document([]byte("# Notes\n\nintro\n\n## Day One\n\n### Morning\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, h := range d.TOC {
		if h.ID == nil || h.Text == nil {
			t.Fatalf("expected id and text on every heading, got %+v", h)
		}
		got = append(got, *h.ID+"|"+*h.Text)
	}
	want := []string{"ln-notes|Notes", "ln-day-one|Day One", "ln-morning|Morning"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toc mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_OutputSatisfiesFastPath(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		count int
	}{
		{"mixed", "# One\n\n<h2 class=\"c\" id=\"two\">Two</h2>\n\n### Three {.cls}\n\n#### Four\n", 4},
		{"attribute syntax title", "## Setup {title=\"t\"}\n", 1},
		{"title before id", "<h2 title=\"t\" id=\"a\">A</h2>\n", 1},
		{"dir after id", "<h2 id=\"a\" dir=\"rtl\">A</h2>\n", 1},
		{"lang and title", "<h3 lang=\"en\" id=\"b\" title=\"x\">B</h3>\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, New(Options{}), tt.src)

			fast, err := toc.HeadingIDs(out)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var slow []toc.HeadingID
			for _, h := range toc.Headings(out) {
				if h.ID != nil {
					slow = append(slow, toc.HeadingID{Level: h.Level, ID: *h.ID})
				}
			}
			if len(slow) != tt.count {
				t.Fatalf("expected %d headings with ids, got %d: %s", tt.count, len(slow), out)
			}
			if diff := cmp.Diff(slow, fast); diff != "" {
				t.Errorf("fast path disagrees (-tokenizer +regex):\n%s", diff)
			}
			for _, attr := range []string{"title", "dir", "lang", "class"} {
				if strings.Contains(out, attr+"=") {
					t.Errorf("expected %s to be stripped from headings: %s", attr, out)
				}
			}
		})
	}
}

func TestFinishIDs(t *testing.T) {
	tests := []struct {
		name, prefix, in, want string
	}{
		{
			"prefix",
			"ln-",
			`<p id="a" title="t">x &amp; y</p><br/><h1 id="b" title="t">T</h1><!-- c --><span>n</span>`,
			`<p id="ln-a" title="t">x &amp; y</p><br/><h1 id="ln-b">T</h1><!-- c --><span>n</span>`,
		},
		{
			"no prefix still strips headings",
			"",
			`<h2 dir="rtl" id="a" lang="en">A</h2><h3 title="t">B</h3><p dir="rtl">c</p>`,
			`<h2 id="a">A</h2><h3>B</h3><p dir="rtl">c</p>`,
		},
		{
			"first id wins",
			"ln-",
			`<h4 id="a" id="b">A</h4>`,
			`<h4 id="ln-a">A</h4>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(finishIDs([]byte(tt.in), tt.prefix)); got != tt.want {
				t.Errorf("finishIDs:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := New(Options{}).Fingerprint()
	if b := New(Options{IDPrefix: DefaultIDPrefix}).Fingerprint(); a != b {
		t.Errorf("expected equal fingerprints, got %q and %q", a, b)
	}
	if b := New(Options{IDPrefix: "note-"}).Fingerprint(); a == b {
		t.Errorf("expected prefix to change the fingerprint, both %q", a)
	}
	if b := New(Options{IDPrefix: NoIDPrefix}).Fingerprint(); a == b {
		t.Errorf("expected disabled prefix to change the fingerprint, both %q", a)
	}
}
