package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Codec turns documents into stored bytes and back.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// JSONCodec stores documents as plain JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// OpaqueCodec stores JSON wrapped in unpadded base64url so values are not
// readable at a glance. It is an encoding, not encryption: anyone with
// access to the store can decode it.
type OpaqueCodec struct{}

func (OpaqueCodec) Name() string { return "opaque" }

func (OpaqueCodec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.RawURLEncoding.EncodedLen(len(raw)))
	base64.RawURLEncoding.Encode(out, raw)
	return out, nil
}

func (OpaqueCodec) Decode(data []byte, v any) error {
	raw := make([]byte, base64.RawURLEncoding.DecodedLen(len(data)))
	n, err := base64.RawURLEncoding.Decode(raw, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal(raw[:n], v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// CodecByName maps a STORE_ENCODING value to a codec.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "opaque":
		return OpaqueCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown store encoding %q", name)
	}
}
