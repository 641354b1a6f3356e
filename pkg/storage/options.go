package storage

import (
	"log/slog"
	"os"

	"github.com/adfharrison1/go-filedb/pkg/codec"
	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// DefaultMaxInsertAttempts bounds the identifier collision loop in InsertOne.
// With 16^16 identifiers it is never reached in practice.
const DefaultMaxInsertAttempts = 1 << 20

type options struct {
	codec             codec.Codec
	logger            *slog.Logger
	newID             func() domain.Identifier
	maxInsertAttempts int
	dirMode           os.FileMode
	fileMode          os.FileMode
}

func defaultOptions() options {
	return options{
		codec:             codec.JSON,
		logger:            slog.Default(),
		newID:             domain.NewIdentifier,
		maxInsertAttempts: DefaultMaxInsertAttempts,
		dirMode:           0o755,
		fileMode:          0o644,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Option configures a Db and the collections it hands out.
type Option func(*options)

// WithCodec sets the payload serialization. Every process sharing a directory
// must use the same codec.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator replaces the identifier generator used by InsertOne.
func WithIDGenerator(fn func() domain.Identifier) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithMaxInsertAttempts caps the identifier collision loop.
func WithMaxInsertAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInsertAttempts = n
		}
	}
}

// WithFileModes sets the permissions for created directories and documents.
func WithFileModes(dir, file os.FileMode) Option {
	return func(o *options) {
		o.dirMode = dir
		o.fileMode = file
	}
}
