package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation")       // 400
	ErrSignature       = errors.New("invalid signature") // 400
	ErrUnauthorized    = errors.New("unauthorized")     // 401
	ErrForbidden       = errors.New("forbidden")        // 403
	ErrNotFound        = errors.New("not found")        // 404
	ErrConflict        = errors.New("conflict")         // 409
	ErrPersistence     = errors.New("persistence")      // 500
	ErrExternalService = errors.New("external service") // 502
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func External(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExternalService, fmt.Sprintf(format, args...))
}

// Persistence wraps a raw store error. Errors that already carry a domain kind
// are returned unchanged so a NotFound raised inside a transaction survives it.
func Persistence(err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func IsDomain(err error) bool {
	for _, k := range []error{ErrValidation, ErrSignature, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrPersistence, ErrExternalService} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
