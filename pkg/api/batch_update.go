package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/query"
)

// BatchUpdateRequest represents the request body for batch update operations.
// Where and Filter select documents, both when given. With neither, every
// document in the collection is updated.
type BatchUpdateRequest struct {
	Where  string          `json:"where,omitempty"`
	Filter query.Filter    `json:"filter,omitempty"`
	Set    domain.Document `json:"set"`
}

// BatchUpdateResponse represents the response for batch update operations
type BatchUpdateResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	Collection   string `json:"collection"`
}

// HandleBatchUpdate handles PATCH requests to update multiple documents in collections
func (h *Handler) HandleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	var req BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("decoding body failed", "collection", collName, "err", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(domain.StripID(req.Set)) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "No fields to set")
		return
	}

	var preds []domain.Predicate
	if len(req.Filter) > 0 {
		preds = append(preds, req.Filter.Predicate())
	}
	if req.Where != "" {
		prog, err := query.Compile(req.Where)
		if err != nil {
			h.writeStoreError(w, r, "batch update", err)
			return
		}
		preds = append(preds, prog.Predicate())
	}

	var pred domain.Predicate
	if len(preds) > 0 {
		pred = query.And(preds...)
	}

	updated, err := h.store.UpdateMany(collName, pred, req.Set)
	if err != nil {
		// Either nothing was written or, on a write failure, the documents
		// already rewritten in this pass remain.
		h.logger.Error("batch update failed", "collection", collName, "updated", updated, "err", err)
		writeJSON(w, StatusFor(err), BatchUpdateResponse{
			Message:      err.Error(),
			UpdatedCount: updated,
			Collection:   collName,
		})
		return
	}

	h.logger.Info("batch update completed", "collection", collName, "updated", updated)
	writeJSON(w, http.StatusOK, BatchUpdateResponse{
		Success:      true,
		Message:      "Batch update completed successfully",
		UpdatedCount: updated,
		Collection:   collName,
	})
}
