package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// BatchInsertRequest represents the request body for batch insert operations
type BatchInsertRequest struct {
	Documents []domain.Document `json:"documents"`
}

// BatchInsertResponse represents the response for batch insert operations
type BatchInsertResponse struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message"`
	InsertedCount int                 `json:"inserted_count"`
	Collection    string              `json:"collection"`
	IDs           []domain.Identifier `json:"ids"`
}

// HandleBatchInsert handles POST requests to insert multiple documents into collections
func (h *Handler) HandleBatchInsert(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	var req BatchInsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("decoding body failed", "collection", collName, "err", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Documents) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "No documents provided")
		return
	}
	if len(req.Documents) > MaxBatchSize {
		WriteJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Maximum %d documents allowed per batch", MaxBatchSize))
		return
	}
	for i, doc := range req.Documents {
		if doc == nil {
			WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("document %d is not an object", i))
			return
		}
	}

	ids, err := h.store.BatchInsert(collName, req.Documents)
	if err != nil {
		// Documents inserted before the failure stay; report them.
		h.logger.Error("batch insert failed", "collection", collName, "inserted", len(ids), "err", err)
		writeJSON(w, StatusFor(err), BatchInsertResponse{
			Message:       err.Error(),
			InsertedCount: len(ids),
			Collection:    collName,
			IDs:           ids,
		})
		return
	}

	h.logger.Info("batch insert successful", "collection", collName, "count", len(ids))
	writeJSON(w, http.StatusCreated, BatchInsertResponse{
		Success:       true,
		Message:       "Batch insert completed successfully",
		InsertedCount: len(ids),
		Collection:    collName,
		IDs:           ids,
	})
}
