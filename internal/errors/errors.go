package errors

import (
	"errors"
	"fmt"
)

// Common error types for the counterparty client
var (
	// Identity provider errors
	ErrBootstrapFailed = errors.New("identity provider bootstrap failed")
	ErrSignInFailed    = errors.New("sign in failed")
	ErrSignOutFailed   = errors.New("sign out failed")

	// Storage errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidKey   = errors.New("invalid key")
	ErrSealedValue  = errors.New("sealed value could not be opened")
	ErrInvalidInput = errors.New("invalid input")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
