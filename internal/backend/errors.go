package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a response body that is not the expected JSON shape.
	ErrMalformed = errors.New("malformed response")

	// ErrCircuitOpen marks a request refused because the backend is failing.
	ErrCircuitOpen = errors.New("backend circuit open")

	// ErrStatus marks a non-2xx response.
	ErrStatus = errors.New("unexpected status")
)

// FetchError is any failure to retrieve data from the backend: transport
// failure, timeout, non-2xx status or a malformed payload. Callers treat all of
// them alike.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is, or wraps, a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
