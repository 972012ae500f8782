// internal/keyer/errors.go
package keyer

import "errors"

var (
	// ErrMissingTarget indicates a nil target was passed to Start, Stop or Register
	ErrMissingTarget = errors.New("missing target element")
	// ErrAlreadyRegistered indicates the target already has a session
	ErrAlreadyRegistered = errors.New("target already registered")
	// ErrNotRegistered indicates the target has no session
	ErrNotRegistered = errors.New("target not registered")
	// ErrInvalidConfig indicates the keyer configuration is malformed
	ErrInvalidConfig = errors.New("invalid keyer config")
	// ErrUnsupportedTargetKind indicates the target has no appendable text representation
	ErrUnsupportedTargetKind = errors.New("unsupported target kind")
)
