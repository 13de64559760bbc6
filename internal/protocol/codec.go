package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownCodec is returned by Lookup for unsupported codec names.
var ErrUnknownCodec = errors.New("protocol: unknown codec")

// Codec serializes messages for one connection.
type Codec interface {
	// Name returns the identifier used in the ?codec= query parameter.
	Name() string

	// Binary reports whether frames must be sent as binary messages.
	Binary() bool

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes messages as JSON text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string                       { return "json" }
func (JSONCodec) Binary() bool                       { return false }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// MsgpackCodec encodes messages as MessagePack binary frames.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string                       { return "msgpack" }
func (MsgpackCodec) Binary() bool                       { return true }
func (MsgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

var codecs = map[string]Codec{
	"json":    JSONCodec{},
	"msgpack": MsgpackCodec{},
}

// Lookup returns the codec registered under name. An empty name selects JSON.
func Lookup(name string) (Codec, error) {
	if name == "" {
		return JSONCodec{}, nil
	}
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// Names lists the supported codec names.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for n := range codecs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DecodeClient parses and validates a client frame.
func DecodeClient(c Codec, data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := c.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("protocol: decode %s client message: %w", c.Name(), err)
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// DecodeServer parses and validates a server frame.
func DecodeServer(c Codec, data []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := c.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("protocol: decode %s server message: %w", c.Name(), err)
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}
