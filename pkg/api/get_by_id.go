package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// parseID reads the {id} route variable, writing a 400 when it is malformed.
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (domain.Identifier, bool) {
	id, err := domain.ParseIdentifier(mux.Vars(r)["id"])
	if err != nil {
		h.logger.Warn("invalid document id", "path", r.URL.Path, "err", err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return id, false
	}
	return id, true
}

// HandleGetById handles GET requests to retrieve a specific document by ID
func (h *Handler) HandleGetById(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	doc, err := h.store.GetById(collName, id)
	if err != nil {
		h.writeStoreError(w, r, "get", err)
		return
	}

	h.logger.Debug("retrieved document", "collection", collName, "id", id.String())
	writeJSON(w, http.StatusOK, doc)
}
