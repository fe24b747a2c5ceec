package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/blogfront/internal/errors"
)

// writeRaw writes an upstream JSON body unchanged.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError logs err and renders it as a message envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err *errors.RelayError) {
	logError(h, r, err)
	writeJSON(w, err.Status, err.Envelope())
}

func logError(h *Handler, r *http.Request, err *errors.RelayError) {
	attrs := []any{
		"code", err.Code,
		"status", err.Status,
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
		"error", err.Error(),
	}
	if err.Category == errors.CategoryUpstream {
		h.logger.WarnContext(r.Context(), "request failed", attrs...)
		return
	}
	h.logger.ErrorContext(r.Context(), "request failed", attrs...)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	err := errors.New(errors.CodeMethodNotAllowed)
	h.logger.DebugContext(r.Context(), "method not allowed", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Allow", allow)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(err.Status)
	w.Write([]byte(err.Message))
}

// upstreamMessage returns the envelope message for an upstream error body:
// the body itself when it is JSON, the trimmed text otherwise, nil when
// empty.
func upstreamMessage(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	msg, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return msg
}
