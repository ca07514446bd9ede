// Package client talks to a lazynotes server on behalf of a reader app:
// it logs in, fetches rendered notes and extracts their table of contents.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/lazynotes/internal/toc"
)

var (
	// ErrUnauthorized means the server rejected the credentials or the
	// stored session. A rejected session has already been erased.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

const maxBodyBytes = 10 << 20

// View is a fetched note with its extracted structure.
type View struct {
	Note  string        `json:"note"`
	TOC   []toc.Heading `json:"toc"`
	Nodes []toc.Node    `json:"nodes"`
}

// Client communicates with one lazynotes instance.
type Client struct {
	baseURL    string
	store      SessionStore
	httpClient *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration

	mu   sync.Mutex
	last *View
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets how many attempts GetNote makes and the wait between
// them.
func WithRetries(n int, backoff func(attempt int) time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		store:   store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: MaxRetries,
		backoff:    Backoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}
	return c
}

// Login signs in and stores the session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("login: status %d: %s", resp.StatusCode, string(respBody))
	}

	for _, ck := range resp.Cookies() {
		if ck.Name != "session" || ck.Value == "" {
			continue
		}
		sess := &Session{ID: ck.Value, Instance: c.baseURL, Username: username}
		if err := c.store.Save(sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	return nil, errors.New("login: response carried no session cookie")
}

// GetNote fetches the note at path for the logged-in user, retrying
// transient server failures.
func (c *Client) GetNote(ctx context.Context, path string) (*View, error) {
	sess, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}

	var view *View
	var lastErr error
	for attempt := range c.maxRetries {
		view, lastErr = c.fetchNote(ctx, sess, path)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == c.maxRetries-1 {
			break
		}
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if errors.Is(lastErr, ErrUnauthorized) {
		if err := c.store.Clear(); err != nil {
			return nil, errors.Join(lastErr, err)
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	c.mu.Lock()
	c.last = view
	c.mu.Unlock()
	return view, nil
}

func (c *Client) fetchNote(ctx context.Context, sess *Session, path string) (*View, error) {
	u := c.baseURL + "/" + url.PathEscape(sess.Username) + "/notes/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: "session", Value: sess.ID})

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("get note %s: %w", path, err)
	}
	note := string(body)
	return &View{
		Note:  note,
		TOC:   toc.Headings(note),
		Nodes: toc.Nodes(note),
	}, nil
}

// GetCSS fetches the instance's note stylesheet.
func (c *Client) GetCSS(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pkg/lazy-notes.css", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/css")
	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("get css: %w", err)
	}
	return string(body), nil
}

// Last returns the most recent note fetched successfully, for showing
// while offline.
func (c *Client) Last() (*View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.last != nil
}

// Logout ends the session on the server and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	sess, err := c.store.Load()
	if err != nil || sess == nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/logout", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "session", Value: sess.ID})
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	resp.Body.Close()
	return c.store.Clear()
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
