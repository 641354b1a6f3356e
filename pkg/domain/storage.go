package domain

import "context"

// Predicate selects documents. It receives the document's identifier and its
// decoded payload.
type Predicate func(id Identifier, doc Document) bool

// DocumentStore is the untyped document interface served over HTTP.
// Collections are created on first reference.
type DocumentStore interface {
	Insert(collName string, doc Document) (Identifier, error)
	BatchInsert(collName string, docs []Document) ([]Identifier, error)
	GetById(collName string, id Identifier) (Document, error)
	FindAll(collName string, pred Predicate) ([]Item[Document], error)
	ReplaceById(collName string, id Identifier, doc Document) error
	UpdateById(collName string, id Identifier, updates Document) (Document, error)
	UpdateMany(collName string, pred Predicate, updates Document) (int, error)
	DeleteById(collName string, id Identifier) error
	Watch(ctx context.Context, collName string) (<-chan ChangeEvent, error)
}
