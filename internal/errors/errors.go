package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the storage backends and the domain packages
var (
	// Storage errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNilRecord     = errors.New("record is nil")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsNotFound reports whether err carries ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
