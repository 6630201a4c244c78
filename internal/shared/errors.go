package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInUse indicates the record is still referenced elsewhere.
	ErrInUse = errors.New("record in use")
	// ErrValidation indicates the input failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the operation is not allowed in the current state.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// FieldErrors carries per-field validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return ErrValidation.Error()
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (f FieldErrors) Unwrap() error {
	return ErrValidation
}
