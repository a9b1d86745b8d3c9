package abc

import "fmt"

// APIError is returned when the ABC system answers with an HTTP error
// status. It is never retried: the request reached the system and a retry
// would produce the same answer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// MalformedResponseError is returned when a response body cannot be decoded
// into the expected shape. It is never retried.
type MalformedResponseError struct {
	Endpoint string
	Cause    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Cause)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}
