package query

import "github.com/adfharrison1/go-filedb/pkg/domain"

// Merge applies a shallow patch to doc in place. The reserved identifier key
// is ignored: a document's identifier cannot be changed by an update.
func Merge(doc domain.Document, patch domain.Document) domain.Document {
	if doc == nil {
		doc = make(domain.Document, len(patch))
	}
	for key, value := range patch {
		if key == domain.IDField {
			continue
		}
		doc[key] = value
	}
	return doc
}
