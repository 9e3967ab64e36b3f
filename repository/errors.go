package repository

import "errors"

// ErrNotFound reports that the referenced lead or conversation does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. It is always raised before any
// store round trip is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(message string) error {
	return &ValidationError{Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
