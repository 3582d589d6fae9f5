package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/dispatch"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps err to a status. Validation errors echo their text; other
// failures answer with msg so internals stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound, msg string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFound)
	case errors.Is(err, dispatch.ErrInvalid), errors.Is(err, core.ErrInvalidNoteType):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.FromCtx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		writeMessage(w, http.StatusInternalServerError, msg)
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
