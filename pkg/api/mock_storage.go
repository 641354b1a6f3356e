package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/query"
)

// MockStore is an in-memory domain.DocumentStore for handler tests.
type MockStore struct {
	mu          sync.RWMutex
	collections map[string]map[domain.Identifier]domain.Document
	watchers    map[string][]chan domain.ChangeEvent
	insertCalls int
	findCalls   int

	// Err, when set, is returned by every operation.
	Err error
}

var _ domain.DocumentStore = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		collections: make(map[string]map[domain.Identifier]domain.Document),
		watchers:    make(map[string][]chan domain.ChangeEvent),
	}
}

func (m *MockStore) coll(collName string) map[domain.Identifier]domain.Document {
	c, ok := m.collections[collName]
	if !ok {
		c = make(map[domain.Identifier]domain.Document)
		m.collections[collName] = c
	}
	return c
}

func (m *MockStore) notFound(collName string, id domain.Identifier) error {
	return fmt.Errorf("%w: %s in collection %s", domain.ErrNotFound, id, collName)
}

// notify must be called with m.mu held.
func (m *MockStore) notify(collName string, id domain.Identifier, kind domain.ChangeKind) {
	for _, ch := range m.watchers[collName] {
		select {
		case ch <- domain.ChangeEvent{Collection: collName, ID: id, Kind: kind}:
		default:
		}
	}
}

// Insert adds a document under a new identifier
func (m *MockStore) Insert(collName string, doc domain.Document) (domain.Identifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.Err != nil {
		return domain.Identifier{}, m.Err
	}

	id := domain.NewIdentifier()
	m.coll(collName)[id] = domain.StripID(doc)
	m.notify(collName, id, domain.ChangeWritten)
	return id, nil
}

// BatchInsert inserts each document in order
func (m *MockStore) BatchInsert(collName string, docs []domain.Document) ([]domain.Identifier, error) {
	ids := make([]domain.Identifier, 0, len(docs))
	for _, doc := range docs {
		id, err := m.Insert(collName, doc)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetById returns the flattened document
func (m *MockStore) GetById(collName string, id domain.Identifier) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	doc, ok := m.collections[collName][id]
	if !ok {
		return nil, m.notFound(collName, id)
	}
	return domain.Flatten(domain.NewItem(id, doc)), nil
}

// FindAll returns the documents matching pred
func (m *MockStore) FindAll(collName string, pred domain.Predicate) ([]domain.Item[domain.Document], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.Err != nil {
		return nil, m.Err
	}

	var items []domain.Item[domain.Document]
	for id, doc := range m.collections[collName] {
		if pred == nil || pred(id, doc) {
			items = append(items, domain.NewItem(id, doc))
		}
	}
	return items, nil
}

// ReplaceById overwrites an existing document
func (m *MockStore) ReplaceById(collName string, id domain.Identifier, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	c := m.coll(collName)
	if _, ok := c[id]; !ok {
		return m.notFound(collName, id)
	}
	c[id] = domain.StripID(doc)
	m.notify(collName, id, domain.ChangeWritten)
	return nil
}

// UpdateById merges updates into a document
func (m *MockStore) UpdateById(collName string, id domain.Identifier, updates domain.Document) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	doc, ok := m.collections[collName][id]
	if !ok {
		return nil, m.notFound(collName, id)
	}
	doc = query.Merge(doc, updates)
	m.collections[collName][id] = doc
	m.notify(collName, id, domain.ChangeWritten)
	return domain.Flatten(domain.NewItem(id, doc)), nil
}

// UpdateMany merges updates into every matching document
func (m *MockStore) UpdateMany(collName string, pred domain.Predicate, updates domain.Document) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}

	n := 0
	for id, doc := range m.collections[collName] {
		if pred == nil || pred(id, doc) {
			m.collections[collName][id] = query.Merge(doc, updates)
			m.notify(collName, id, domain.ChangeWritten)
			n++
		}
	}
	return n, nil
}

// DeleteById removes a document
func (m *MockStore) DeleteById(collName string, id domain.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, ok := m.collections[collName][id]; !ok {
		return m.notFound(collName, id)
	}
	delete(m.collections[collName], id)
	m.notify(collName, id, domain.ChangeRemoved)
	return nil
}

// Watch returns a channel fed by later writes to the collection
func (m *MockStore) Watch(ctx context.Context, collName string) (<-chan domain.ChangeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	in := make(chan domain.ChangeEvent, 16)
	m.watchers[collName] = append(m.watchers[collName], in)

	out := make(chan domain.ChangeEvent)
	go func() {
		defer close(out)
		defer m.unwatch(collName, in)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-in:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *MockStore) unwatch(collName string, ch chan domain.ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chans := m.watchers[collName]
	for i, c := range chans {
		if c == ch {
			m.watchers[collName] = append(chans[:i], chans[i+1:]...)
			return
		}
	}
}

// WatcherCount returns the number of active watchers on a collection
func (m *MockStore) WatcherCount(collName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.watchers[collName])
}

// GetInsertCalls returns the number of Insert calls
func (m *MockStore) GetInsertCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.insertCalls
}

// GetFindCalls returns the number of FindAll calls
func (m *MockStore) GetFindCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findCalls
}

// GetCollectionCount returns the number of documents in a collection
func (m *MockStore) GetCollectionCount(collName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collName])
}
