package serverutils

import "fmt"

// AppError carries an HTTP status classification alongside the message so
// the error handler middleware can map failures without string matching.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: 400, Message: message}
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{Code: 401, Message: message}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: 500, Message: message, Err: err}
}
