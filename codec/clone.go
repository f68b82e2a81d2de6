package codec

import (
	"errors"
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"google.golang.org/protobuf/proto"

	"github.com/Belphemur/ubercache/apperrors"
)

// ErrCycle is the cause reported when a value refers back to itself.
var ErrCycle = errors.New("value contains a reference cycle")

var (
	protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

	// sharedTypes are immutable once built and are stored by reference.
	sharedTypes = map[reflect.Type]struct{}{
		reflect.TypeOf((*time.Location)(nil)): {},
	}
)

// cloneCodec stores a deep structural copy of the value.
type cloneCodec[V any] struct{}

// NewClone returns the default codec: a reflection based deep clone.
//
// Pointers, slices, maps, interfaces and struct fields (exported or not) are
// copied recursively. Protobuf messages are copied with proto.Clone and
// *time.Location is shared. Channels, functions and unsafe pointers cannot
// be represented, and neither can values that reach themselves through a
// reference cycle.
func NewClone[V any]() Codec[V] {
	return cloneCodec[V]{}
}

func (cloneCodec[V]) Name() string {
	return "clone"
}

func (c cloneCodec[V]) Encode(value V) (any, error) {
	out, err := deepClone(value)
	if err != nil {
		return nil, apperrors.NewEncodingError(c.Name(), err)
	}
	return out, nil
}

func (c cloneCodec[V]) Decode(stored any) (V, error) {
	var zero V
	if stored == nil {
		return zero, nil
	}

	value, ok := stored.(V)
	if !ok {
		return zero, apperrors.NewCorruptDataError(c.Name(), fmt.Errorf("stored %T, want %T", stored, zero))
	}
	// The stored form was checked for cycles when it was encoded.
	out, err := deepClone(value)
	if err != nil {
		return zero, apperrors.NewCorruptDataError(c.Name(), err)
	}
	return out, nil
}

func deepClone[V any](value V) (V, error) {
	c := &cloner{path: make(map[visit]struct{})}
	out, err := c.clone(reflect.ValueOf(&value).Elem())
	if err != nil {
		var zero V
		return zero, err
	}
	// A nil interface result leaves the zero value in place.
	cloned, _ := out.Interface().(V)
	return cloned, nil
}

// visit identifies a reference on the current clone path.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

type cloner struct {
	path map[visit]struct{}
}

// enter marks v as being on the current path. Shared references reached
// through different branches are fine; only a reference reached from
// itself is a cycle.
func (c *cloner) enter(v reflect.Value) (func(), error) {
	key := visit{ptr: v.Pointer(), typ: v.Type()}
	if _, ok := c.path[key]; ok {
		return nil, ErrCycle
	}
	c.path[key] = struct{}{}
	return func() { delete(c.path, key) }, nil
}

func (c *cloner) clone(v reflect.Value) (reflect.Value, error) {
	t := v.Type()

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return v, nil

	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		if _, ok := sharedTypes[t]; ok {
			return v, nil
		}
		if t.Implements(protoMessageType) {
			return reflect.ValueOf(proto.Clone(v.Interface().(proto.Message))), nil
		}
		leave, err := c.enter(v)
		if err != nil {
			return reflect.Value{}, err
		}
		defer leave()

		elem, err := c.clone(v.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(elem)
		return out, nil

	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		elem, err := c.clone(v.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(t).Elem()
		out.Set(elem)
		return out, nil

	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		if v.Len() > 0 {
			leave, err := c.enter(v)
			if err != nil {
				return reflect.Value{}, err
			}
			defer leave()
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := c.clone(v.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			elem, err := c.clone(v.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(t), nil
		}
		leave, err := c.enter(v)
		if err != nil {
			return reflect.Value{}, err
		}
		defer leave()

		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := c.clone(iter.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			val, err := c.clone(iter.Value())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(key, val)
		}
		return out, nil

	case reflect.Struct:
		if !v.CanAddr() {
			addressable := reflect.New(t).Elem()
			addressable.Set(v)
			v = addressable
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.NumField(); i++ {
			field, err := c.clone(unrestricted(v.Field(i)))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %s.%s: %w", t, t.Field(i).Name, err)
			}
			unrestricted(out.Field(i)).Set(field)
		}
		return out, nil

	default:
		return reflect.Value{}, fmt.Errorf("cannot clone value of kind %s", v.Kind())
	}
}

// unrestricted returns f without the read-only flag reflect puts on
// unexported fields. f must be addressable.
func unrestricted(f reflect.Value) reflect.Value {
	if f.CanSet() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}
