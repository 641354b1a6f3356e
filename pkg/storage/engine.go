package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/query"
)

// Engine serves schema-free documents from a Db. It implements
// domain.DocumentStore.
type Engine struct {
	db *Db

	mu          sync.RWMutex
	collections map[string]*Collection[domain.Document]
}

var _ domain.DocumentStore = (*Engine)(nil)

// NewEngine opens root and returns an Engine over it.
func NewEngine(root string, opts ...Option) (*Engine, error) {
	db, err := Open(root, opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		db:          db,
		collections: make(map[string]*Collection[domain.Document]),
	}, nil
}

// Db returns the underlying database.
func (e *Engine) Db() *Db {
	return e.db
}

// collection returns a cached handle, opening it on first use. Handles hold
// no state, so caching only saves the directory checks.
func (e *Engine) collection(collName string) (*Collection[domain.Document], error) {
	e.mu.RLock()
	if c, exists := e.collections[collName]; exists {
		e.mu.RUnlock()
		return c, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check in case another goroutine opened it
	if c, exists := e.collections[collName]; exists {
		return c, nil
	}

	c, err := e.db.Collection(collName)
	if err != nil {
		return nil, err
	}
	e.collections[collName] = c
	e.db.opts.logger.Info("opened collection", "collection", collName, "dir", c.Dir())
	return c, nil
}

// Insert stores doc under a new identifier. A client-supplied identifier field
// is dropped.
func (e *Engine) Insert(collName string, doc domain.Document) (domain.Identifier, error) {
	c, err := e.collection(collName)
	if err != nil {
		return domain.Identifier{}, err
	}
	return c.InsertOne(domain.StripID(doc))
}

// BatchInsert inserts docs one at a time. On failure it returns the
// identifiers inserted so far along with the error.
func (e *Engine) BatchInsert(collName string, docs []domain.Document) ([]domain.Identifier, error) {
	c, err := e.collection(collName)
	if err != nil {
		return nil, err
	}

	ids := make([]domain.Identifier, 0, len(docs))
	for i, doc := range docs {
		id, err := c.InsertOne(domain.StripID(doc))
		if err != nil {
			return ids, fmt.Errorf("document %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	e.db.opts.logger.Info("batch inserted documents", "collection", collName, "count", len(ids))
	return ids, nil
}

// GetById returns the document with its identifier under domain.IDField.
func (e *Engine) GetById(collName string, id domain.Identifier) (domain.Document, error) {
	c, err := e.collection(collName)
	if err != nil {
		return nil, err
	}
	item, err := c.GetOne(id)
	if err != nil {
		return nil, err
	}
	return domain.Flatten(item), nil
}

// FindAll returns the documents matching pred, or all of them when pred is
// nil.
func (e *Engine) FindAll(collName string, pred domain.Predicate) ([]domain.Item[domain.Document], error) {
	c, err := e.collection(collName)
	if err != nil {
		return nil, err
	}
	return c.FindMany(adapt(pred))
}

// ReplaceById overwrites an existing document.
func (e *Engine) ReplaceById(collName string, id domain.Identifier, doc domain.Document) error {
	c, err := e.collection(collName)
	if err != nil {
		return err
	}
	return c.ReplaceOne(domain.NewItem(id, domain.StripID(doc)))
}

// UpdateById merges updates into the document and returns the result.
func (e *Engine) UpdateById(collName string, id domain.Identifier, updates domain.Document) (domain.Document, error) {
	c, err := e.collection(collName)
	if err != nil {
		return nil, err
	}
	item, err := c.UpdateByID(id, func(item *domain.Item[domain.Document]) {
		item.Data = query.Merge(item.Data, updates)
	})
	if err != nil {
		return nil, err
	}
	return domain.Flatten(item), nil
}

// UpdateMany merges updates into every document matching pred and returns
// how many were rewritten.
func (e *Engine) UpdateMany(collName string, pred domain.Predicate, updates domain.Document) (int, error) {
	c, err := e.collection(collName)
	if err != nil {
		return 0, err
	}
	n, err := c.UpdateMany(adapt(pred), func(item *domain.Item[domain.Document]) {
		item.Data = query.Merge(item.Data, updates)
	})
	if err != nil {
		return n, err
	}
	e.db.opts.logger.Info("updated documents", "collection", collName, "count", n)
	return n, nil
}

// DeleteById removes a document.
func (e *Engine) DeleteById(collName string, id domain.Identifier) error {
	c, err := e.collection(collName)
	if err != nil {
		return err
	}
	return c.DeleteOne(id)
}

// Watch streams change events for a collection until ctx is done.
func (e *Engine) Watch(ctx context.Context, collName string) (<-chan domain.ChangeEvent, error) {
	c, err := e.collection(collName)
	if err != nil {
		return nil, err
	}
	return c.Watch(ctx)
}

func adapt(pred domain.Predicate) Predicate[domain.Document] {
	if pred == nil {
		return nil
	}
	return func(item domain.Item[domain.Document]) bool {
		return pred(item.ID, item.Data)
	}
}
