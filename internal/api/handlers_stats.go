package api

import "net/http"

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"render": s.notes.RenderStats(),
	})
}
