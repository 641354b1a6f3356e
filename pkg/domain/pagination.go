package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
)

// PaginationOptions defines pagination parameters
type PaginationOptions struct {
	// Cursor-based pagination
	After string `json:"after,omitempty"` // Base64 encoded cursor

	// Limit/offset pagination (fallback)
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	MaxLimit int `json:"max_limit,omitempty"`
}

// PaginationResult contains one page of documents and its metadata
type PaginationResult struct {
	Documents  []Document `json:"documents"`
	HasNext    bool       `json:"has_next"`
	HasPrev    bool       `json:"has_prev"`
	NextCursor string     `json:"next_cursor,omitempty"`
	Total      int64      `json:"total"`
}

// Cursor points at the last document of a page
type Cursor struct {
	ID string `json:"id"`
}

// EncodeCursor encodes a cursor to base64
func EncodeCursor(cursor *Cursor) (string, error) {
	data, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor decodes a base64 cursor
func DecodeCursor(encoded string) (*Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}
	if _, err := ParseIdentifier(cursor.ID); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	return &cursor, nil
}

// DefaultPaginationOptions returns default pagination settings
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		Limit:    50,
		MaxLimit: 1000,
	}
}

// Validate validates pagination options
func (po *PaginationOptions) Validate() error {
	if po.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if po.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	if po.MaxLimit > 0 && po.Limit > po.MaxLimit {
		return fmt.Errorf("limit %d exceeds maximum %d", po.Limit, po.MaxLimit)
	}

	// Ensure we're not mixing cursor and offset pagination
	if po.After != "" && po.Offset > 0 {
		return fmt.Errorf("cannot mix cursor-based and offset-based pagination")
	}

	return nil
}

// Paginate sorts items by identifier and returns the requested page with each
// document flattened. Directory order is unspecified, so sorting is what makes
// pages stable between requests.
func Paginate(items []Item[Document], options *PaginationOptions) (*PaginationResult, error) {
	if options == nil {
		options = DefaultPaginationOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ID.String() < items[j].ID.String()
	})

	result := &PaginationResult{
		Documents: []Document{},
		Total:     int64(len(items)),
	}

	start := options.Offset
	if options.After != "" {
		cursor, err := DecodeCursor(options.After)
		if err != nil {
			return nil, err
		}
		// First item strictly after the cursor; the cursor document may have
		// been deleted since the previous page.
		start = sort.Search(len(items), func(i int) bool {
			return items[i].ID.String() > cursor.ID
		})
	}

	limit := options.Limit
	if limit <= 0 {
		limit = 50
	}
	if options.MaxLimit > 0 && limit > options.MaxLimit {
		limit = options.MaxLimit
	}

	if start >= len(items) {
		result.HasPrev = start > 0 && len(items) > 0
		return result, nil
	}

	end := start + limit
	if end < len(items) {
		result.HasNext = true
	} else {
		end = len(items)
	}
	result.HasPrev = start > 0

	page := items[start:end]
	for _, item := range page {
		result.Documents = append(result.Documents, Flatten(item))
	}

	if result.HasNext {
		next, err := EncodeCursor(&Cursor{ID: page[len(page)-1].ID.String()})
		if err != nil {
			return nil, err
		}
		result.NextCursor = next
	}

	return result, nil
}
