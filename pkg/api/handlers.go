package api

import (
	"log/slog"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// MaxBatchSize caps the number of documents in one batch insert.
const MaxBatchSize = 1000

// Handler provides HTTP handlers for the database API
type Handler struct {
	store  domain.DocumentStore
	logger *slog.Logger
}

// NewHandler creates a new API handler with dependency injection. A nil logger
// means slog.Default().
func NewHandler(store domain.DocumentStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}
