// Package notes reads users' markdown notes from disk and renders them.
package notes

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound    = errors.New("note not found")
	ErrInvalidPath = errors.New("invalid path")
	ErrTooLarge    = errors.New("note too large")
)

// Store lays notes out as <dataDir>/<user>/notes/... with static files under
// <dataDir>/<user>/resources/.
type Store struct {
	dataDir string

	// MaxBytes caps the size of a note that Read will load. Zero means no
	// limit.
	MaxBytes int64
}

func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Resolve maps a note path to its file. Paths not ending in ".md" name a
// directory and resolve to its index.md.
func (s *Store) Resolve(user, p string) (string, error) {
	if err := checkUser(user); err != nil {
		return "", err
	}
	name := p
	if !strings.HasSuffix(name, ".md") {
		name = path.Join(name, "index.md")
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return filepath.Join(s.dataDir, user, "notes", filepath.FromSlash(name)), nil
}

// Read returns the markdown for a note with root-relative resource links
// rewritten to point at the user's resources.
func (s *Store) Read(user, p string) ([]byte, error) {
	file, err := s.Resolve(user, p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("open note: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.MaxBytes > 0 {
		r = io.LimitReader(f, s.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read note %s: %w", p, err)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, p, s.MaxBytes)
	}
	return rewriteResourceLinks(data, user), nil
}

func rewriteResourceLinks(data []byte, user string) []byte {
	data = bytes.ReplaceAll(data, []byte("](/resources"), []byte("](/"+user+"/resources"))
	return bytes.ReplaceAll(data, []byte(`src="/resources`), []byte(`src="/`+user+`/resources`))
}

// Provision creates a user's notes and resources directories and an empty
// notes/index.md. Existing files are left alone.
func (s *Store) Provision(user string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	root := filepath.Join(s.dataDir, user)
	for _, dir := range []string{"notes", "resources"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	f, err := os.OpenFile(filepath.Join(root, "notes", "index.md"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return f.Close()
}

// ResourcePath returns the file for a user's resource.
func (s *Store) ResourcePath(user, file string) (string, error) {
	if err := checkUser(user); err != nil {
		return "", err
	}
	if !filepath.IsLocal(filepath.FromSlash(file)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, file)
	}
	return filepath.Join(s.dataDir, user, "resources", filepath.FromSlash(file)), nil
}

func checkUser(user string) error {
	if user == "" || user == "." || user == ".." || strings.ContainsAny(user, `/\`) {
		return fmt.Errorf("%w: user %q", ErrInvalidPath, user)
	}
	return nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
