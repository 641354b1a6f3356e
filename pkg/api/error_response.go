package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/query"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// StatusFor maps a store error to an HTTP status code. Identifiers in the URL
// are checked before the store is called, so an invalid identifier reported by
// the store comes from the data directory and is a server error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCollectionName),
		errors.Is(err, query.ErrInvalidExpression):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeStoreError logs err and writes it with the status StatusFor picks.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := StatusFor(err)
	level := h.logger.Warn
	if status >= http.StatusInternalServerError {
		level = h.logger.Error
	}
	level(op+" failed", "path", r.URL.Path, "status", status, "err", err)
	WriteJSONError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeDocument reads a JSON object body.
func decodeDocument(r *http.Request) (domain.Document, error) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return doc, nil
}
