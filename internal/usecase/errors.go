package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrPrecondition          = errors.New("precondition failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
