package api

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/dgallion1/lazynotes/internal/auth"
	"github.com/dgallion1/lazynotes/internal/config"
	"github.com/dgallion1/lazynotes/internal/notes"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for lazynotes.
type Server struct {
	router chi.Router
	notes  *notes.Service
	auth   *auth.Service
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(notesSvc *notes.Service, authSvc *auth.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		notes: notesSvc,
		auth:  authSvc,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/api/signup", s.handleSignup)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/pkg/*", http.StripPrefix("/pkg/", http.FileServer(http.FS(static))))

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.auth, s.log))

		r.Get("/api/notes/*", s.handleGetNote)
		r.Get("/api/notes-toc/*", s.handleGetTOC)
		r.Get("/api/stats/render", s.handleRenderStats)

		r.Get("/{user}/notes/*", s.handleNotePage)
		r.Get("/{user}/resources/*", s.handleResource)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
