package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeAuth         = "AUTH_ERROR"
	ErrCodePersistence  = "PERSISTENCE_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Kind classifies failures so callers can decide whether an error is the
// caller's fault, a provider's, or ours.
type Kind int

const (
	KindValidation Kind = iota
	KindUpstream
	KindAuth
	KindPersistence
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error,
// otherwise KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return ErrCodeValidation
	case KindUpstream:
		return ErrCodeUpstream
	case KindAuth:
		return ErrCodeAuth
	case KindPersistence:
		return ErrCodePersistence
	default:
		return ErrCodeInternal
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}
