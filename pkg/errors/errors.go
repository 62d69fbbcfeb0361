package errors

import "fmt"

// AppError carries a stable machine-readable code alongside the message so
// handlers can map failures to HTTP statuses and clients can branch on them.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code extracts the AppError code from any error, or INTERNAL_ERROR.
func Code(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Caller errors: deterministic, non-retryable.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotYourTurn       = "NOT_YOUR_TURN"
	ErrCodeWrongPhase        = "WRONG_PHASE"
	ErrCodeCardAlreadyUsed   = "CARD_ALREADY_USED"
	ErrCodeInsufficientFunds = "INSUFFICIENT_COINS"
)

// Conflict errors: the client should react (e.g. redirect to the existing
// match), not blindly retry.
const (
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeAlreadyInMatch    = "ALREADY_IN_MATCH"
	ErrCodeAlreadyInQueue    = "ALREADY_IN_QUEUE"
	ErrCodeStaleConnection   = "STALE_CONNECTION"
	ErrCodeConnectionExpired = "CONNECTION_EXPIRED"
)

// Everything else.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeOnlineDisabled = "ONLINE_DISABLED"
)
