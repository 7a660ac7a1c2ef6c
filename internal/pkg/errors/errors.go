package errors

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalid            = errors.New("invalid")
	ErrConflict           = errors.New("conflict")
	ErrTooMany            = errors.New("too many requests")
	ErrInternal           = errors.New("internal")
	ErrUsageLimitExceeded = errors.New("usage limit exceeded")
	ErrNoContentFound     = errors.New("no content found for this document")
	ErrMalformedOutput    = errors.New("malformed generation output")
)

// UsageLimitError reports which tool ran out of quota on a file.
type UsageLimitError struct {
	Tool  string
	Count int
	Limit int
}

func (e *UsageLimitError) Error() string {
	return e.Tool + " limit reached for this file"
}

func (e *UsageLimitError) Is(target error) bool {
	return target == ErrUsageLimitExceeded
}

// Code is the machine readable reason, e.g. SUMMARIZE_LIMIT_EXCEEDED.
func (e *UsageLimitError) Code() string {
	return strings.ToUpper(e.Tool) + "_LIMIT_EXCEEDED"
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsUsageLimit(err error) bool {
	return errors.Is(err, ErrUsageLimitExceeded)
}
