package domain

import "errors"

var (
	// ErrInvalidIdentifier is returned for identifier text of the wrong length
	// or alphabet, and for identifiers that cannot be rendered as text.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNotFound is returned when a document file does not exist. It is
	// always wrapped together with the underlying fs.ErrNotExist.
	ErrNotFound = errors.New("document not found")

	// ErrIO wraps filesystem and lock failures.
	ErrIO = errors.New("io failure")

	// ErrSerialization wraps payload encode and decode failures.
	ErrSerialization = errors.New("serialization failure")

	// ErrInvalidCollectionName is returned for collection names that are not a
	// single path element.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrIdentifierExhausted is returned when insert could not find a free
	// identifier within its attempt budget.
	ErrIdentifierExhausted = errors.New("identifier space exhausted")
)
