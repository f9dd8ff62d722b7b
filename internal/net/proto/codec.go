package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrUnknownMessage is returned for envelopes whose type has no decoder.
	ErrUnknownMessage = errors.New("proto: unknown message type")
	// ErrEmptyPayload is returned for frames or envelopes without content.
	ErrEmptyPayload = errors.New("proto: empty payload")
)

// Codec frames envelopes for one wire encoding.
type Codec interface {
	Name() string
	// Binary reports whether frames must be sent as binary websocket
	// messages.
	Binary() bool
	// Encode wraps payload in an envelope of type t.
	Encode(t Type, payload any) ([]byte, error)
	// Split returns the envelope type and the still-encoded payload.
	Split(data []byte) (Type, []byte, error)
	// Unmarshal decodes a payload returned by Split into v.
	Unmarshal(payload []byte, v any) error
}

// JSON is the text codec.
var JSON Codec = jsonCodec{}

// Msgpack is the binary codec. Field names follow the json tags so both
// encodings share one schema.
var Msgpack Codec = msgpackCodec{}

// CodecByName resolves "json" or "msgpack".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("proto: unknown codec %q", name)
	}
}

type jsonCodec struct{}

type jsonEnvelope struct {
	T Type            `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(t Type, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: %w", ErrUnknownMessage)
	}
	var raw json.RawMessage
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		raw = pb
	}
	return json.Marshal(jsonEnvelope{T: t, P: raw})
}

func (jsonCodec) Split(data []byte) (Type, []byte, error) {
	if len(data) == 0 {
		return "", nil, ErrEmptyPayload
	}
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env.T, env.P, nil
}

func (jsonCodec) Unmarshal(payload []byte, v any) error {
	return json.Unmarshal(payload, v)
}

type msgpackCodec struct{}

type msgpackEnvelope struct {
	T Type               `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p,omitempty"`
}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Binary() bool { return true }

func (c msgpackCodec) Encode(t Type, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: %w", ErrUnknownMessage)
	}
	var raw msgpack.RawMessage
	if payload != nil {
		pb, err := c.marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		raw = pb
	}
	return msgpack.Marshal(&msgpackEnvelope{T: t, P: raw})
}

func (msgpackCodec) Split(data []byte) (Type, []byte, error) {
	if len(data) == 0 {
		return "", nil, ErrEmptyPayload
	}
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env.T, env.P, nil
}

func (msgpackCodec) Unmarshal(payload []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (msgpackCodec) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
