package service

// ValidationError reports malformed or out-of-range input. It is
// detected before any write reaches the store and maps to a 400 at the
// HTTP boundary.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}
