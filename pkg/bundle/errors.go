package bundle

import "fmt"

// ErrorCode classifies publish failures for callers that want to retry.
type ErrorCode string

const (
	CodeEndpointUnreachable ErrorCode = "ENDPOINT_UNREACHABLE"
	CodeAuthInvalid         ErrorCode = "AUTH_INVALID"
	CodeBucketNotFound      ErrorCode = "BUCKET_NOT_FOUND"
	CodeObjectNotFound      ErrorCode = "OBJECT_NOT_FOUND"
	CodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	CodeWriteFailed         ErrorCode = "WRITE_FAILED"
	CodeTimeout             ErrorCode = "TIMEOUT"
)

// Error carries a code and a retryability hint alongside the cause.
type Error struct {
	Code      ErrorCode
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bundle: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapError(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Retryable: retryable, Err: err}
}
