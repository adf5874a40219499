// Package apperr defines the error kinds surfaced by the coaching core.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	// NotFound: no profile or plan exists for the request. No state changed.
	NotFound Kind = "not_found"
	// Upstream: the generation capability failed or timed out. No state
	// changed; the identical request is safe to retry.
	Upstream Kind = "upstream"
	// Validation: malformed input, rejected before anything is written.
	Validation Kind = "validation"
	// Conflict: another change to the same plan held it for longer than the
	// caller could wait. No state changed; safe to retry.
	Conflict Kind = "conflict"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

func UpstreamErr(msg string, err error) *Error {
	return &Error{Kind: Upstream, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool   { return KindOf(err) == NotFound }
func IsUpstream(err error) bool   { return KindOf(err) == Upstream }
func IsValidation(err error) bool { return KindOf(err) == Validation }
func IsConflict(err error) bool   { return KindOf(err) == Conflict }

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case Upstream:
		return http.StatusBadGateway
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage is the message safe to show a client. Internal errors are
// not echoed back.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return string(e.Kind)
	}
	return "Internal server error"
}
