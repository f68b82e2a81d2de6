package apperrors

import "fmt"

// ErrInvalidKey is returned when a value is stored under a nil key.
type ErrInvalidKey struct {
	Key interface{}
}

// Error implements the error interface.
func (e *ErrInvalidKey) Error() string {
	return fmt.Sprintf("invalid key %#v", e.Key)
}

// Is allows for error checking with errors.Is().
func (e *ErrInvalidKey) Is(target error) bool {
	_, ok := target.(*ErrInvalidKey)
	return ok
}

// NewInvalidKeyError creates a new ErrInvalidKey.
func NewInvalidKeyError(key interface{}) *ErrInvalidKey {
	return &ErrInvalidKey{Key: key}
}

// ErrEncoding is returned when a codec cannot represent a value.
// The cache is left untouched when Set fails with this error.
type ErrEncoding struct {
	Codec string
	Err   error
}

// Error implements the error interface.
func (e *ErrEncoding) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to encode data with %s codec: %v", e.Codec, e.Err)
	}
	return fmt.Sprintf("unable to encode data with %s codec", e.Codec)
}

// Unwrap returns the underlying cause.
func (e *ErrEncoding) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrEncoding) Is(target error) bool {
	_, ok := target.(*ErrEncoding)
	return ok
}

// NewEncodingError creates a new ErrEncoding.
func NewEncodingError(codec string, err error) *ErrEncoding {
	return &ErrEncoding{Codec: codec, Err: err}
}

// ErrCorruptData is returned when stored data cannot be decoded.
// The cache produced that data itself, so this always points at a bug.
type ErrCorruptData struct {
	Codec string
	Err   error
}

// Error implements the error interface.
func (e *ErrCorruptData) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed cache data found (%s codec): %v", e.Codec, e.Err)
	}
	return fmt.Sprintf("malformed cache data found (%s codec)", e.Codec)
}

// Unwrap returns the underlying cause.
func (e *ErrCorruptData) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrCorruptData) Is(target error) bool {
	_, ok := target.(*ErrCorruptData)
	return ok
}

// NewCorruptDataError creates a new ErrCorruptData.
func NewCorruptDataError(codec string, err error) *ErrCorruptData {
	return &ErrCorruptData{Codec: codec, Err: err}
}

// ErrInvalidWeight is returned when a weigher reports a negative weight.
type ErrInvalidWeight struct {
	Weight int64
}

// Error implements the error interface.
func (e *ErrInvalidWeight) Error() string {
	return fmt.Sprintf("invalid entry weight %d", e.Weight)
}

// Is allows for error checking with errors.Is().
func (e *ErrInvalidWeight) Is(target error) bool {
	_, ok := target.(*ErrInvalidWeight)
	return ok
}

// ErrHandler reports a failed event subscriber. It never reaches the caller
// of the operation that raised the event.
type ErrHandler struct {
	Event string
	Err   error
}

// Error implements the error interface.
func (e *ErrHandler) Error() string {
	return fmt.Sprintf("%s event handler failed: %v", e.Event, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ErrHandler) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrHandler) Is(target error) bool {
	_, ok := target.(*ErrHandler)
	return ok
}

// NewHandlerError creates a new ErrHandler.
func NewHandlerError(event string, err error) *ErrHandler {
	return &ErrHandler{Event: event, Err: err}
}
