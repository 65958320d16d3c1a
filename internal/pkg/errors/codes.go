package errors

import "net/http"

// Error codes. These are the machine-readable values in the HTTP error
// body's "code" field; human-readable text lives in Message, never in Code.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeNotAuthorized        = "NOT_AUTHORIZED"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidStatusTransit = "INVALID_STATUS_TRANSITION"
	CodeConcurrentModified   = "CONCURRENT_MODIFICATION"
	CodeInternalError        = "INTERNAL_ERROR"
)

// Detail is one entry in an AppError's field-level validation details.
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError builds the 400 kind, optionally carrying field details.
func ValidationError(message string, details ...Detail) *AppError {
	err := New(CodeValidationError, message, http.StatusBadRequest)
	err.Details = details
	return err
}

// Unauthenticated builds the 401 kind: no resolvable actor identity.
func Unauthenticated(message string) *AppError {
	return New(CodeUnauthenticated, message, http.StatusUnauthorized)
}

// AuthorizationError builds the 403 kind: AuthorizationPolicy denied the
// action.
func AuthorizationError(message string) *AppError {
	return New(CodeNotAuthorized, message, http.StatusForbidden)
}

// NotFoundError builds the 404 kind.
func NotFoundError(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// InvalidTransition builds the 409 kind reported when the pre-read status
// disagrees with the state the operation requires, independent of any
// version predicate.
func InvalidTransition(message string) *AppError {
	return New(CodeInvalidStatusTransit, message, http.StatusConflict)
}

// ConflictError builds the 409 kind reported when the version predicate
// fails at commit (or the caller-supplied expectedVersion disagrees with
// the pre-read). Safe for the caller to retry after re-fetching the
// current version.
func ConflictError(message string) *AppError {
	return New(CodeConcurrentModified, message, http.StatusConflict)
}

// StorageError builds the error reported when the store itself faults.
// Retryable storage faults (timeouts, cancellation, connection loss) map
// to 503; non-retryable faults map to 500.
func StorageError(err error, retryable bool) *AppError {
	status := http.StatusInternalServerError
	if retryable {
		status = http.StatusServiceUnavailable
	}
	wrapped := Wrap(err, CodeInternalError, "storage operation failed", status)
	wrapped.Retryable = retryable
	return wrapped
}

// IsRetryableStorageError reports whether err is a StorageError marked
// retryable.
func IsRetryableStorageError(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == CodeInternalError && appErr.Retryable
}
