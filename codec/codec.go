// Package codec defines the structured-data codec consumed by fetch body
// construction and decoding.
package codec

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Codec encodes and decodes structured values to and from bytes.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	// ContentType is the media type advertised for encoded payloads.
	ContentType() string
}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding json")
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "decoding json")
	}
	return nil
}

func (jsonCodec) ContentType() string { return "application/json" }
