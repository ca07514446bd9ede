package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/lazynotes/internal/auth"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")

	err := s.auth.Signup(r.Context(), username, r.PostFormValue("password"), r.PostFormValue("password_confirmation"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"username": username})
	case errors.Is(err, auth.ErrSignupsDisabled):
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, auth.ErrUserExists):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrPasswordMismatch):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("signup failed", "username", username, "error", err)
		jsonError(w, "failed to create user", http.StatusInternalServerError)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")

	sess, err := s.auth.Login(r.Context(), username, r.PostFormValue("password"))
	switch {
	case errors.Is(err, auth.ErrBadCredentials):
		jsonError(w, err.Error(), http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrRateLimited):
		jsonError(w, err.Error(), http.StatusTooManyRequests)
		return
	case err != nil:
		s.log.Error("login failed", "username", username, "error", err)
		jsonError(w, "login failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.auth.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"username": sess.Username,
		"redirect": "/" + sess.Username + "/notes/index.md",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), c.Value); err != nil {
			s.log.Error("logout failed", "error", err)
			jsonError(w, "logout failed", http.StatusInternalServerError)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies(r),
	})
	w.WriteHeader(http.StatusNoContent)
}

// secureCookies reports whether session cookies need the Secure flag. TLS
// terminated by a proxy is only known through config.
func (s *Server) secureCookies(r *http.Request) bool {
	return s.cfg.SecureCookies || r.TLS != nil
}
