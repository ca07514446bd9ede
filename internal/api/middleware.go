package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/lazynotes/internal/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// SessionCookie holds the session id.
const SessionCookie = "session"

type sessionKey struct{}

// SessionMiddleware resolves the session cookie and rejects requests
// without a live session.
func SessionMiddleware(authSvc *auth.Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil {
				jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			sess, err := authSvc.Lookup(r.Context(), c.Value)
			if errors.Is(err, auth.ErrNoSession) {
				jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.Error("session lookup failed", "error", err)
				jsonError(w, "session lookup failed", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
		})
	}
}

// sessionFrom returns the session attached by SessionMiddleware.
func sessionFrom(ctx context.Context) auth.Session {
	sess, _ := ctx.Value(sessionKey{}).(auth.Session)
	return sess
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
