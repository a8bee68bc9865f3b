// Package errors defines all exported error sentinels for the longsort library.
//
// This is the single source of truth for error values. Both the top-level
// longsort package and internal packages import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import (
	"errors"
	"fmt"
)

// Failure categories. Every error returned by longsort wraps exactly one of these.
var (
	ErrValidation        = errors.New("longsort: invalid request")
	ErrResourceExhausted = errors.New("longsort: resource exhausted")
	ErrIO                = errors.New("longsort: i/o failure")
	ErrTimedOut          = errors.New("longsort: timed out")
	ErrInconsistent      = errors.New("longsort: post-condition violated")
)

// Validation errors
var (
	ErrEmptyInput      = fmt.Errorf("%w: input file is empty", ErrValidation)
	ErrMisalignedInput = fmt.Errorf("%w: input size is not a multiple of 8 bytes", ErrValidation)
	ErrInputNotRegular = fmt.Errorf("%w: input is not a regular file", ErrValidation)
	ErrInputChanged    = fmt.Errorf("%w: input file changed on disk", ErrValidation)
	ErrOutputExists    = fmt.Errorf("%w: output file already exists", ErrValidation)
	ErrOutputDir       = fmt.Errorf("%w: output directory is missing or not writable", ErrValidation)
	ErrInvalidOption   = fmt.Errorf("%w: invalid option", ErrValidation)
)

// Resource errors
var (
	ErrTooManyWorkers = fmt.Errorf("%w: worker count exceeds maximum chunk count", ErrResourceExhausted)
	ErrMemoryBudget   = fmt.Errorf("%w: no chunk count fits the memory budget", ErrResourceExhausted)
)
