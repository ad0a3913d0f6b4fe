package errors

import (
	"errors"
)

func New(text string) error {
	return errors.New(text)
}

// Report whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Find the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// WithOperation annotates err with the operation that failed. Uncoded errors
// keep an empty code so callers still see the original cause.
func WithOperation(err error, operation string) error {
	if err == nil {
		return nil
	}

	var spacesErr *SpacesError
	if As(err, &spacesErr) {
		if spacesErr.Operation == "" {
			spacesErr.Operation = operation
		}
		return err
	}

	return &SpacesError{
		Cause:     err,
		Context:   make(map[string]any),
		Operation: operation,
	}
}

func WithContext(err error, key string, value any) error {
	if err == nil {
		return nil
	}

	var spacesErr *SpacesError
	if As(err, &spacesErr) {
		spacesErr.WithContext(key, value)
		return err
	}

	return (&SpacesError{Cause: err}).WithContext(key, value)
}
