package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

const defaultSearchLimit = 5

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleRagStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Memory.Stats(r.Context()))
}

func (s *Server) handleClientHistory(w http.ResponseWriter, r *http.Request) {
	h := s.deps.Memory.ClientHistory(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", s.deps.HistoryLimit))
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDriverHistory(w http.ResponseWriter, r *http.Request) {
	h := s.deps.Memory.DriverHistory(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", s.deps.HistoryLimit))
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleClientSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := readSearch(w, r)
	if !ok {
		return
	}
	results := s.deps.Memory.FetchClientContext(r.Context(), chi.URLParam(r, "id"), req.Query, req.Limit)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleDriverSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := readSearch(w, r)
	if !ok {
		return
	}
	results := s.deps.Memory.FetchDriverContext(r.Context(), chi.URLParam(r, "id"), req.Query, req.Limit)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func readSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeMessage(w, http.StatusBadRequest, "Query is required")
		return req, false
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}
	return req, true
}

func (s *Server) handleDriverNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note     string `json:"note"`
		NoteType string `json:"noteType"`
	}
	if err := decode(r, &req); err != nil || req.Note == "" || req.NoteType == "" {
		writeMessage(w, http.StatusBadRequest, "note and noteType are required")
		return
	}

	err := s.deps.Dispatch.AddDriverNote(r.Context(), chi.URLParam(r, "id"), req.Note, req.NoteType)
	if errors.Is(err, core.ErrInvalidNoteType) {
		writeMessage(w, http.StatusBadRequest, "Invalid noteType. Must be: "+noteTypes())
		return
	}
	if err != nil {
		writeError(w, r, err, "Driver not found", "Failed to add driver note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClientPreference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preference string `json:"preference"`
	}
	if err := decode(r, &req); err != nil || req.Preference == "" {
		writeMessage(w, http.StatusBadRequest, "preference is required")
		return
	}

	if err := s.deps.Dispatch.AddClientPreference(r.Context(), chi.URLParam(r, "id"), req.Preference); err != nil {
		writeError(w, r, err, "Client not found", "Failed to add client preference")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePurge drops an entity's semantic memory without touching its record.
func (s *Server) handlePurge(kind core.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if kind == core.EntityDriver {
			s.deps.Memory.DeleteDriverMemory(r.Context(), id)
		} else {
			s.deps.Memory.DeleteClientMemory(r.Context(), id)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func noteTypes() string {
	names := make([]string, len(core.DriverNoteTypes))
	for i, t := range core.DriverNoteTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
