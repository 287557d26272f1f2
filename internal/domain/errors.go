package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies collaborator failures so callers can react without
// inspecting error messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindIOFailure
	KindConflict
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindIOFailure:
		return "io_failure"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrIOFailure    = errors.New("io failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error is the structured failure returned by every collaborator service.
type Error struct {
	Kind    ErrorKind
	Op      string // operation that failed, e.g. "documents.delete"
	Message string // human-readable detail
	Err     error  // underlying cause, may be nil
}

// E builds a domain error. cause may be nil.
func E(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is() to match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrIOFailure:
		return e.Kind == KindIOFailure
	}
	return false
}

// StatusCode implements the HTTPError interface
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// KindOf reports the kind of err. Wrapped sentinels are recognised as well as
// *Error values anywhere in the chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	var ce *ConflictError
	switch {
	case errors.As(err, &ce), errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	}
	return KindUnknown
}

// Wrap converts err into a *Error for op, keeping the kind of any domain
// error or sentinel already in the chain. Returns nil for a nil err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		if de.Op == "" {
			return E(de.Kind, op, de.Message, de.Err)
		}
		return err
	}

	kind := KindOf(err)
	return E(kind, op, kindMessage(kind), err)
}

func kindMessage(k ErrorKind) string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "already exists"
	case KindValidation:
		return "invalid input"
	case KindIOFailure:
		return "storage failure"
	default:
		return "unexpected failure"
	}
}

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, folder, signature)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
