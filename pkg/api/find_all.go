package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/query"
)

// Query parameters that are not field filters.
const (
	paramWhere  = "where"
	paramLimit  = "limit"
	paramOffset = "offset"
	paramAfter  = "after"
)

var reservedParams = []string{paramWhere, paramLimit, paramOffset, paramAfter}

// predicateFromRequest combines the equality filters in the query string with
// an optional where expression.
func predicateFromRequest(r *http.Request) (domain.Predicate, error) {
	values := r.URL.Query()
	filter := query.FilterFromValues(values, reservedParams...)

	var preds []domain.Predicate
	if len(filter) > 0 {
		preds = append(preds, filter.Predicate())
	}
	if where := values.Get(paramWhere); where != "" {
		prog, err := query.Compile(where)
		if err != nil {
			return nil, err
		}
		preds = append(preds, prog.Predicate())
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return query.And(preds...), nil
}

func paginationFromRequest(r *http.Request) (*domain.PaginationOptions, error) {
	values := r.URL.Query()
	opts := domain.DefaultPaginationOptions()

	if v := values.Get(paramLimit); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q", v)
		}
		opts.Limit = limit
	}
	if v := values.Get(paramOffset); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", v)
		}
		opts.Offset = offset
	}
	opts.After = values.Get(paramAfter)

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// HandleFindAll handles GET requests to find documents with filter criteria.
// Results are sorted by identifier and paginated.
func (h *Handler) HandleFindAll(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	pred, err := predicateFromRequest(r)
	if err != nil {
		h.writeStoreError(w, r, "find", err)
		return
	}
	opts, err := paginationFromRequest(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.store.FindAll(collName, pred)
	if err != nil {
		h.writeStoreError(w, r, "find", err)
		return
	}

	page, err := domain.Paginate(items, opts)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("found documents", "collection", collName, "total", page.Total, "returned", len(page.Documents))
	writeJSON(w, http.StatusOK, page)
}
