package samplesource

import (
	"fmt"
)

// DecodeError means the input could not be decoded at all. It is fatal:
// no partial result may be derived from the input.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("unable to decode the input: %v", e.Err)
	}
	return fmt.Sprintf("unable to decode '%s': %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IncompleteStreamError means the stream ended early due to a failure in
// the middle of decoding. Everything before SamplesRead is valid.
type IncompleteStreamError struct {
	SamplesRead int64
	Err         error
}

func (e *IncompleteStreamError) Error() string {
	return fmt.Sprintf("the stream was truncated after %d samples: %v", e.SamplesRead, e.Err)
}

func (e *IncompleteStreamError) Unwrap() error {
	return e.Err
}
