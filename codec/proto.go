package codec

import (
	"google.golang.org/protobuf/proto"
)

type protoSerializer[M proto.Message] struct{}

// Proto returns a Serializer that stores messages in protobuf wire format.
func Proto[M proto.Message]() Serializer[M] {
	return protoSerializer[M]{}
}

// NewProto returns an uncompressed protobuf codec.
func NewProto[M proto.Message]() Codec[M] {
	return Bytes(Proto[M](), nil)
}

func (protoSerializer[M]) Name() string {
	return "proto"
}

func (protoSerializer[M]) Marshal(msg M) ([]byte, error) {
	return proto.Marshal(msg)
}

func (protoSerializer[M]) Unmarshal(data []byte) (M, error) {
	var zero M
	msg, ok := zero.ProtoReflect().New().Interface().(M)
	if !ok {
		return zero, proto.Error
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return zero, err
	}
	return msg, nil
}
