package cache

import (
	"fmt"
	"reflect"

	"github.com/DmitriyVTitov/size"
)

// Weigher returns the accounting weight of an encoded value. It must be
// deterministic for a given input; a negative weight is rejected with
// *apperrors.ErrInvalidWeight.
type Weigher func(stored any) int64

// DefaultWeigher approximates the memory footprint of stored in bytes.
// Byte slices produced by serializing codecs weigh their length; other
// values are measured by walking them with reflection, so an int weighs 8.
// A nil value weighs 0 and a nil pointer weighs the pointer itself.
// It returns -1 for values it cannot measure.
func DefaultWeigher(stored any) int64 {
	weight, err := measure(stored)
	if err != nil {
		return -1
	}
	return weight
}

// measure is DefaultWeigher with the failure reported as an error, so the
// cache can tell an unmeasurable value from a misbehaving custom weigher.
func measure(stored any) (int64, error) {
	switch v := stored.(type) {
	case nil:
		return 0, nil
	case []byte:
		return int64(len(v)), nil
	}

	// size.Of dereferences its argument and cannot measure a nil pointer.
	if v := reflect.ValueOf(stored); v.Kind() == reflect.Pointer && v.IsNil() {
		return int64(v.Type().Size()), nil
	}

	n := size.Of(stored)
	if n < 0 {
		return 0, fmt.Errorf("cannot measure value of type %T", stored)
	}
	return int64(n), nil
}

// weigher adapts Options.Weigher to the cache's internal form. A nil
// Weigher selects measure.
func weigher(w Weigher) func(any) (int64, error) {
	if w == nil {
		return measure
	}
	return func(stored any) (int64, error) {
		return w(stored), nil
	}
}
