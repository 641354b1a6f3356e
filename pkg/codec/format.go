package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	// Magic bytes to identify compressed documents
	MagicBytes = "GFDB"
	// Current version
	FormatVersion = 1
	// FlagLZ4 marks an LZ4 frame body
	FlagLZ4 = 1 << 0
	// HeaderSize is the encoded size of FileHeader
	HeaderSize = 8
)

// FileHeader prefixes every compressed document
type FileHeader struct {
	Magic    [4]byte // "GFDB"
	Version  uint8   // Format version
	Flags    uint8   // Body encoding flags
	Reserved [2]byte // Reserved for future use
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, flags uint8) error {
	header := FileHeader{
		Magic:    [4]byte{'G', 'F', 'D', 'B'},
		Version:  FormatVersion,
		Flags:    flags,
		Reserved: [2]byte{0, 0},
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Validate magic bytes
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %q", MagicBytes, string(header.Magic[:]))
	}

	// Validate version
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}

	return &header, nil
}

type compressedCodec struct {
	inner Codec
}

// Compressed wraps inner so that documents are stored as a FileHeader
// followed by an LZ4 frame of the inner encoding.
func Compressed(inner Codec) Codec {
	return compressedCodec{inner: inner}
}

func (c compressedCodec) Name() string { return c.inner.Name() + "+lz4" }

func (c compressedCodec) Marshal(v interface{}) ([]byte, error) {
	raw, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, FlagLZ4); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	return buf.Bytes(), nil
}

func (c compressedCodec) Unmarshal(data []byte, v interface{}) error {
	r := bytes.NewReader(data)
	header, err := ReadHeader(r)
	if err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}
	if header.Flags&FlagLZ4 == 0 {
		return fmt.Errorf("unsupported body flags: %#x", header.Flags)
	}

	raw, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return fmt.Errorf("failed to decompress data: %w", err)
	}
	return c.inner.Unmarshal(raw, v)
}
