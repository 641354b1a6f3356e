package domain

import (
	"crypto/rand"
	"fmt"
)

// IdentifierSize is the number of symbols in an Identifier.
const IdentifierSize = 16

const identifierAlphabet = "0123456789abcdef"

// Identifier names a document within a collection. Its textual form is exactly
// IdentifierSize lowercase hexadecimal characters and is also the document's
// file name.
type Identifier [IdentifierSize]byte

// NewIdentifier returns an identifier whose symbols are drawn independently and
// uniformly from the hexadecimal alphabet. It does not check for collisions.
func NewIdentifier() Identifier {
	var raw [IdentifierSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	var id Identifier
	for i, b := range raw {
		// The alphabet has 16 symbols, so the low nibble is uniform.
		id[i] = identifierAlphabet[b&0x0f]
	}
	return id
}

// ParseIdentifier parses the textual form of an identifier. Both the length
// and the alphabet are checked, so a parsed identifier always round-trips.
func ParseIdentifier(text string) (Identifier, error) {
	var id Identifier
	if len(text) != IdentifierSize {
		return id, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidIdentifier, text, len(text), IdentifierSize)
	}
	for i := 0; i < IdentifierSize; i++ {
		if !isIdentifierSymbol(text[i]) {
			return Identifier{}, fmt.Errorf("%w: %q has invalid character at position %d", ErrInvalidIdentifier, text, i)
		}
		id[i] = text[i]
	}
	return id, nil
}

func isIdentifierSymbol(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// Text returns the textual form of id. It fails for identifiers that were not
// produced by NewIdentifier or ParseIdentifier, such as the zero value.
func (id Identifier) Text() (string, error) {
	for i, c := range id {
		if !isIdentifierSymbol(c) {
			return "", fmt.Errorf("%w: invalid symbol %#x at position %d", ErrInvalidIdentifier, c, i)
		}
	}
	return string(id[:]), nil
}

// IsZero reports whether id is the zero value.
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

func (id Identifier) String() string {
	s, err := id.Text()
	if err != nil {
		return "<invalid>"
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (id Identifier) MarshalText() ([]byte, error) {
	s, err := id.Text()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
