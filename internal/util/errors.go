// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input provided")
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEntry = errors.New("duplicate entry") // For creating a user with an existing username
)

// IsError reports whether err is, or wraps, target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
