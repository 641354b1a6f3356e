package domain

// IDField is the reserved key under which a document's identifier appears when
// a Document is presented to callers. It is never stored on disk.
const IDField = "_id"

// Document is a schema-free payload.
type Document map[string]interface{}

// Item pairs a payload with the identifier of the file that holds it.
type Item[T any] struct {
	ID   Identifier `json:"_id" msgpack:"_id"`
	Data T          `json:"data" msgpack:"data"`
}

// NewItem creates an Item.
func NewItem[T any](id Identifier, data T) Item[T] {
	return Item[T]{ID: id, Data: data}
}

// Flatten returns a copy of the item's document with the identifier set under
// IDField.
func Flatten(item Item[Document]) Document {
	out := make(Document, len(item.Data)+1)
	for k, v := range item.Data {
		out[k] = v
	}
	out[IDField] = item.ID.String()
	return out
}

// StripID returns a copy of doc without the reserved IDField.
func StripID(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// ChangeKind classifies a ChangeEvent.
type ChangeKind string

const (
	ChangeWritten ChangeKind = "written"
	ChangeRemoved ChangeKind = "removed"
)

// ChangeEvent reports that a document file in a collection changed.
type ChangeEvent struct {
	Collection string     `json:"collection"`
	ID         Identifier `json:"_id"`
	Kind       ChangeKind `json:"kind"`
}
