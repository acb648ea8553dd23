package collector

import "fmt"

// APIError is a non-2xx response from the collector. It keeps the status
// code and response body so tracing failures stay diagnosable.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth another attempt. Client
// errors are terminal; server errors and throttling are not.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
