package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind classifies request-terminal failures.
type ErrKind string

const (
	ErrKindValidation ErrKind = "validation"
	ErrKindUpstream   ErrKind = "upstream"
	ErrKindConfig     ErrKind = "config"
)

// DomainError carries an error kind so handlers can map failures to
// HTTP statuses without string matching.
type DomainError struct {
	Kind  ErrKind
	Msg   string
	Cause error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind to a response status.
func (e *DomainError) HTTPStatus() int {
	if e.Kind == ErrKindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Validationf builds a validation error (missing/invalid parameter).
func Validationf(format string, args ...any) *DomainError {
	return &DomainError{Kind: ErrKindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Upstreamf builds an upstream error wrapping the transport cause.
func Upstreamf(cause error, format string, args ...any) *DomainError {
	return &DomainError{Kind: ErrKindUpstream, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Configf builds a configuration error (missing credential etc).
func Configf(format string, args ...any) *DomainError {
	return &DomainError{Kind: ErrKindConfig, Msg: fmt.Sprintf(format, args...)}
}

// AsDomainError unwraps err to a DomainError if one is in the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
