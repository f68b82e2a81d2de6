package codec

import "encoding/json"

type jsonSerializer[V any] struct{}

// JSON returns a Serializer that stores values as JSON text. Reference
// cycles are rejected by encoding/json.
func JSON[V any]() Serializer[V] {
	return jsonSerializer[V]{}
}

// NewJSON returns an uncompressed JSON codec.
func NewJSON[V any]() Codec[V] {
	return Bytes(JSON[V](), nil)
}

func (jsonSerializer[V]) Name() string {
	return "json"
}

func (jsonSerializer[V]) Marshal(value V) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonSerializer[V]) Unmarshal(data []byte) (V, error) {
	var value V
	err := json.Unmarshal(data, &value)
	return value, err
}
