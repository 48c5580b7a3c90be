package response

import (
	"errors"
	"fmt"
)

// Error is an error that carries the HTTP status it should be reported with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap annotates base with cause while keeping base matchable by errors.Is.
func Wrap(base error, cause error) error {
	if cause == nil {
		return base
	}
	return fmt.Errorf("%w: %v", base, cause)
}
