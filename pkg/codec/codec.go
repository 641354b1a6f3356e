// Package codec is the payload serialization layer. A document file holds
// exactly the bytes produced by Marshal.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes document payloads. Unmarshal(Marshal(p)) must
// reproduce p for every payload the store writes.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

var (
	// JSON writes indented JSON.
	JSON Codec = jsonCodec{}
	// Msgpack writes MessagePack.
	Msgpack Codec = msgpackCodec{}
)

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	// A document file holds exactly one value.
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected trailing data after JSON value")
	}
	return nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	// Untyped numbers come back as int64/uint64/float64 instead of the
	// smallest wire type.
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Skip(); err != io.EOF {
		return fmt.Errorf("unexpected trailing data after MessagePack value")
	}
	return nil
}

// ByName returns the codec registered under name: json, msgpack, json+lz4 or
// msgpack+lz4.
func ByName(name string) (Codec, error) {
	base, compressed := strings.CutSuffix(strings.ToLower(strings.TrimSpace(name)), "+lz4")
	var c Codec
	switch base {
	case "json", "":
		c = JSON
	case "msgpack":
		c = Msgpack
	default:
		return nil, fmt.Errorf("unknown codec %q (supported: json, msgpack, json+lz4, msgpack+lz4)", name)
	}
	if compressed {
		c = Compressed(c)
	}
	return c, nil
}
