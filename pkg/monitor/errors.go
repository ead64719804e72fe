package monitor

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame is matched by every decode failure.
var ErrMalformedFrame = errors.New("malformed monitor frame")

type DecodeError struct {
	Offset int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s at offset %d: %s", ErrMalformedFrame, e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedFrame
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
