package replay

import (
	"errors"
	"fmt"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("replay: decode failed")

var (
	ErrBadMagic      = errors.New("bad magic")
	ErrTruncated     = errors.New("unexpected end of data")
	ErrStringTooLong = errors.New("string exceeds maximum length")
	ErrInvalidField  = errors.New("invalid field value")
	ErrTrailingData  = errors.New("trailing data after frames")
)

// DecodeError locates a decoding failure. Match the cause with errors.Is
// against the package sentinels.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("replay: decode %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// EncodeError reports a Replay value that cannot be represented on the wire.
type EncodeError struct {
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("replay: encode %s: %v", e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
