// Package codec converts caller values into the form a cache entry owns and
// back. Every codec guarantees that the stored form never aliases the value it
// was built from, and that each Decode returns a value nobody else holds.
package codec

import (
	"fmt"

	"github.com/Belphemur/ubercache/apperrors"
)

// Codec translates between caller values and cache-owned storage.
type Codec[V any] interface {
	// Name identifies the codec in errors and logs.
	Name() string

	// Encode returns a representation of value that shares no memory with it.
	// It fails with *apperrors.ErrEncoding when value cannot be represented.
	Encode(value V) (any, error)

	// Decode returns a fresh value from a representation produced by Encode.
	// It fails with *apperrors.ErrCorruptData when stored is not well formed.
	Decode(stored any) (V, error)
}

// Serializer is a byte-oriented codec. Adapt one into a Codec with Bytes.
type Serializer[V any] interface {
	Name() string
	Marshal(value V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// byteCodec stores values as serialized, optionally compressed, bytes.
type byteCodec[V any] struct {
	serializer Serializer[V]
	compressor Compressor
	name       string
}

// Bytes adapts a Serializer into a Codec. When compressor is non-nil the
// serialized form is compressed before it is stored.
func Bytes[V any](serializer Serializer[V], compressor Compressor) Codec[V] {
	name := serializer.Name()
	if compressor != nil {
		name += "+" + compressor.Name()
	}
	return &byteCodec[V]{
		serializer: serializer,
		compressor: compressor,
		name:       name,
	}
}

func (c *byteCodec[V]) Name() string {
	return c.name
}

func (c *byteCodec[V]) Encode(value V) (any, error) {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return nil, apperrors.NewEncodingError(c.name, err)
	}
	if c.compressor != nil {
		data, err = c.compressor.Compress(data)
		if err != nil {
			return nil, apperrors.NewEncodingError(c.name, err)
		}
	}
	return data, nil
}

func (c *byteCodec[V]) Decode(stored any) (V, error) {
	var zero V

	data, ok := stored.([]byte)
	if !ok {
		return zero, apperrors.NewCorruptDataError(c.name, fmt.Errorf("stored %T, want []byte", stored))
	}
	if c.compressor != nil {
		var err error
		if data, err = c.compressor.Decompress(data); err != nil {
			return zero, apperrors.NewCorruptDataError(c.name, err)
		}
	}
	value, err := c.serializer.Unmarshal(data)
	if err != nil {
		return zero, apperrors.NewCorruptDataError(c.name, err)
	}
	return value, nil
}

// Build creates a codec from configuration names. name is "clone" (the
// default) or "json"; compression is "none" or a registered compressor and is
// only valid for byte codecs.
func Build[V any](name, compression string) (Codec[V], error) {
	compressor, err := NewCompressor(compression)
	if err != nil {
		return nil, err
	}

	switch name {
	case "", "clone":
		if compressor != nil {
			return nil, fmt.Errorf("codec: clone codec cannot be combined with %q compression", compression)
		}
		return NewClone[V](), nil
	case "json":
		return Bytes(JSON[V](), compressor), nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q (available: clone, json)", name)
	}
}
