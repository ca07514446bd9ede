package api

import (
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"github.com/dgallion1/lazynotes/internal/notes"
	"github.com/dgallion1/lazynotes/internal/toc"
	"github.com/go-chi/chi/v5"
)

var notePage = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Lazy Notes</title>
<link rel="stylesheet" href="/pkg/lazy-notes.css">
</head>
<body>
<main>
<nav id="toc">{{.TOC}}</nav>
<article id="notes">{{.Body}}</article>
</main>
</body>
</html>
`))

// getNote loads the requested note for the session user, writing an error
// response and returning nil on failure.
func (s *Server) getNote(w http.ResponseWriter, r *http.Request) *notes.Note {
	sess := sessionFrom(r.Context())
	path := chi.URLParam(r, "*")

	note, err := s.notes.Get(r.Context(), sess.Username, path)
	switch {
	case err == nil:
		return note
	case errors.Is(err, notes.ErrNotFound):
		jsonError(w, "note not found", http.StatusNotFound)
	case errors.Is(err, notes.ErrInvalidPath):
		jsonError(w, "invalid note path", http.StatusBadRequest)
	case errors.Is(err, notes.ErrTooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		s.log.Error("render failed", "user", sess.Username, "path", path, "error", err)
		jsonError(w, "failed to render note", http.StatusInternalServerError)
	}
	return nil
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note := s.getNote(w, r)
	if note == nil {
		return
	}
	w.Header().Set("ETag", note.ETag)
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleGetTOC(w http.ResponseWriter, r *http.Request) {
	note := s.getNote(w, r)
	if note == nil {
		return
	}

	switch {
	case r.URL.Query().Get("fast") == "1":
		ids, err := toc.HeadingIDs(note.HTML)
		if errors.Is(err, toc.ErrInvalidInput) {
			jsonError(w, "note has no html content", http.StatusUnprocessableEntity)
			return
		}
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	case r.URL.Query().Get("tree") == "1":
		writeJSON(w, http.StatusOK, toc.Nest(note.TOC))
	default:
		writeJSON(w, http.StatusOK, note.TOC)
	}
}

func (s *Server) handleNotePage(w http.ResponseWriter, r *http.Request) {
	if !s.ownsPath(w, r) {
		return
	}
	note := s.getNote(w, r)
	if note == nil {
		return
	}

	w.Header().Set("ETag", note.ETag)
	if r.Header.Get("If-None-Match") == note.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Both fragments are sanitized or escaped before reaching the template.
	err := notePage.Execute(w, map[string]template.HTML{
		"TOC":  template.HTML(toc.RenderList(toc.Nest(note.TOC))),
		"Body": template.HTML(note.HTML),
	})
	if err != nil {
		s.log.Error("write note page", "path", note.Path, "error", err)
	}
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	if !s.ownsPath(w, r) {
		return
	}
	user := chi.URLParam(r, "user")
	file, err := s.notes.Store().ResourcePath(user, chi.URLParam(r, "*"))
	if err != nil {
		jsonError(w, "invalid resource path", http.StatusBadRequest)
		return
	}
	fi, err := os.Stat(file)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && fi.IsDir()) {
		jsonError(w, "resource not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("stat resource", "file", file, "error", err)
		jsonError(w, "failed to read resource", http.StatusInternalServerError)
		return
	}
	http.ServeFile(w, r, file)
}

// ownsPath rejects requests for another user's files.
func (s *Server) ownsPath(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "user") != sessionFrom(r.Context()).Username {
		jsonError(w, "not authorized for this user", http.StatusUnauthorized)
		return false
	}
	return true
}
