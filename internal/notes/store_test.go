package notes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeNote(t *testing.T, dataDir, user, name, content string) {
	t.Helper()
	file := filepath.Join(dataDir, user, "notes", filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolve(t *testing.T) {
	s := NewStore("/data")
	tests := []struct {
		path string
		want string
	}{
		{"index.md", "/data/bob/notes/index.md"},
		{"", "/data/bob/notes/index.md"},
		{"rust", "/data/bob/notes/rust/index.md"},
		{"rust/", "/data/bob/notes/rust/index.md"},
		{"rust/traits.md", "/data/bob/notes/rust/traits.md"},
		{"a/../b.md", "/data/bob/notes/b.md"},
	}
	for _, tt := range tests {
		got, err := s.Resolve("bob", tt.path)
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error: %v", tt.path, err)
			continue
		}
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolve_Invalid(t *testing.T) {
	s := NewStore("/data")
	for _, p := range []string{"../alice/notes/index.md", "/etc/passwd.md", "..", "a/../../x"} {
		if _, err := s.Resolve("bob", p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Resolve(%q): expected ErrInvalidPath, got %v", p, err)
		}
	}
	for _, u := range []string{"", "..", "a/b"} {
		if _, err := s.Resolve(u, "index.md"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Resolve user %q: expected ErrInvalidPath, got %v", u, err)
		}
	}
}

func TestRead_RewritesResourceLinks(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "bob", "index.md", "![cat](/resources/cat.png)\n\n<video src=\"/resources/v.mp4\"></video>\n[ext](https://x/resources)\n")

	got, err := NewStore(dir).Read("bob", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "![cat](/bob/resources/cat.png)\n\n<video src=\"/bob/resources/v.mp4\"></video>\n[ext](https://x/resources)\n"
	if string(got) != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestRead_NotFound(t *testing.T) {
	if _, err := NewStore(t.TempDir()).Read("bob", "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRead_TooLarge(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "bob", "big.md", "0123456789")
	s := NewStore(dir)
	s.MaxBytes = 5

	if _, err := s.Read("bob", "big.md"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	s.MaxBytes = 10
	if _, err := s.Read("bob", "big.md"); err != nil {
		t.Fatalf("expected note at the limit to load, got %v", err)
	}
}

func TestProvision(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := s.Provision("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fi, err := os.Stat(filepath.Join(dir, "bob", "resources")); err != nil || !fi.IsDir() {
		t.Errorf("expected resources dir, got %v", err)
	}
	got, err := s.Read("bob", "index.md")
	if err != nil {
		t.Fatalf("expected empty index, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty index, got %q", got)
	}

	// A second call keeps existing content.
	writeNote(t, dir, "bob", "index.md", "# Mine\n")
	if err := s.Provision("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := s.Read("bob", "index.md"); string(got) != "# Mine\n" {
		t.Errorf("expected index to be kept, got %q", got)
	}
}

func TestResourcePath(t *testing.T) {
	s := NewStore("/data")
	got, err := s.ResourcePath("bob", "img/cat.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.FromSlash("/data/bob/resources/img/cat.png"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	for _, f := range []string{"", "../notes/index.md", "/etc/passwd"} {
		if _, err := s.ResourcePath("bob", f); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ResourcePath(%q): expected ErrInvalidPath, got %v", f, err)
		}
	}
}

func TestContentHashHex(t *testing.T) {
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := ContentHashHex([]byte("hello world")); got != want {
		t.Errorf("expected hash %q, got %q", want, got)
	}
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}
