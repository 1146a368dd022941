package backend

import (
	"errors"
	"fmt"
)

// TransportError covers network failures, timeouts, and non-2xx responses
// from the inference backend. A single failed call surfaces immediately;
// no retries are performed anywhere.
type TransportError struct {
	Op         string // "health", "infer", "mitigate"
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned status %d from %s", e.Op, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// MissingInputError is returned when text submitted for analysis is empty
// after trimming. No backend call is made in that case.
type MissingInputError struct{}

func (e *MissingInputError) Error() string {
	return "no input text: enter at least one text"
}

// IsMissingInput reports whether err is (or wraps) a MissingInputError.
func IsMissingInput(err error) bool {
	var me *MissingInputError
	return errors.As(err, &me)
}
