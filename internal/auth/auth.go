// Package auth manages user accounts and login sessions in redis.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSignupsDisabled  = errors.New("signups are disabled")
	ErrUserExists       = errors.New("username is taken")
	ErrInvalidUsername  = errors.New("username is invalid")
	ErrPasswordMismatch = errors.New("passwords did not match")
	ErrBadCredentials   = errors.New("incorrect username or password")
	ErrNoSession        = errors.New("no session")
	ErrRateLimited      = errors.New("too many login attempts")
)

const DefaultSessionTTL = 14 * 24 * time.Hour

var usernamePattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
})

// ValidUsername reports whether s consists only of ASCII letters, digits,
// '_' and '-'.
func ValidUsername(s string) bool {
	return usernamePattern().MatchString(s)
}

// reservedNames are top-level route segments a username would collide with.
var reservedNames = []string{"api", "pkg", "health"}

// Reserved reports whether s is a route segment that cannot be a username.
func Reserved(s string) bool {
	return slices.Contains(reservedNames, strings.ToLower(s))
}

// Provisioner creates the on-disk layout for a new user.
type Provisioner interface {
	Provision(user string) error
}

// Session is a logged-in user.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type userRecord struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type Options struct {
	EnableSignups bool
	SessionTTL    time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Service struct {
	rdb   *redis.Client
	dirs  Provisioner
	quota *Quota
	opts  Options
	log   *slog.Logger
}

// NewService returns a Service. quota may be nil to disable login limits.
func NewService(rdb *redis.Client, dirs Provisioner, quota *Quota, opts Options, log *slog.Logger) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{rdb: rdb, dirs: dirs, quota: quota, opts: opts, log: log}
}

func userKey(name string) string  { return "user:" + name }
func sessionKey(id string) string { return "session:" + id }

// Signup creates a user and provisions their notes directories.
func (s *Service) Signup(ctx context.Context, username, password, confirm string) error {
	if !s.opts.EnableSignups {
		return ErrSignupsDisabled
	}
	n, err := s.rdb.Exists(ctx, userKey(username)).Result()
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n > 0 {
		return ErrUserExists
	}
	if !ValidUsername(username) || Reserved(username) {
		return ErrInvalidUsername
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	data, err := json.Marshal(userRecord{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, userKey(username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if !ok {
		return ErrUserExists
	}

	if err := s.dirs.Provision(username); err != nil {
		if derr := s.rdb.Del(ctx, userKey(username)).Err(); derr != nil {
			s.log.Error("remove half-created user", "username", username, "error", derr)
		}
		return fmt.Errorf("provision user: %w", err)
	}
	s.log.Info("user created", "username", username)
	return nil
}

// Login checks the password and starts a session.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if !ValidUsername(username) {
		return Session{}, ErrBadCredentials
	}
	if s.quota != nil && !s.quota.Allow(ctx, "login:"+username) {
		return Session{}, ErrRateLimited
	}

	data, err := s.rdb.Get(ctx, userKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrBadCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	var u userRecord
	if err := json.Unmarshal(data, &u); err != nil {
		return Session{}, fmt.Errorf("decode user %s: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrBadCredentials
	}

	sess := Session{
		ID:        uuid.NewString(),
		Username:  u.Username,
		CreatedAt: time.Now().UTC(),
	}
	data, err = json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), data, s.opts.SessionTTL).Err(); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Lookup returns the live session with the given id.
func (s *Service) Lookup(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNoSession
	}
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Logout ends a session. Unknown ids are not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SessionTTL is how long a new session lives.
func (s *Service) SessionTTL() time.Duration { return s.opts.SessionTTL }
