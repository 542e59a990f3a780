package dbtcloud

import "fmt"

// AuthenticationError indicates the API rejected the credentials (401/403).
// It is fatal and never retried.
type AuthenticationError struct {
	StatusCode int
	Message    string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("dbt Cloud authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// RetrievalError indicates retrieval failed after exhausting retries, or a
// non-retryable transport/protocol failure.
type RetrievalError struct {
	Resource string
	Attempts int
	Err      error
}

func (e *RetrievalError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("retrieving %s failed after %d attempts: %v", e.Resource, e.Attempts, e.Err)
	}
	return fmt.Sprintf("retrieving %s failed: %v", e.Resource, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// httpError carries a raw HTTP status for retry classification.
type httpError struct {
	StatusCode int
	Body       string
	RetryAfter int // seconds, 0 when the server sent none
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func (e *httpError) authFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
