// Package docerr provides the tagged error type used across the pipeline:
// every returned error carries a Kind that a caller (or the media API
// server) can switch on without string matching.
package docerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an Error for routing and HTTP-status mapping.
type Kind string

const (
	// KindIO covers filesystem/network failures reading source material.
	KindIO Kind = "io"
	// KindParse covers malformed input the corresponding format parser
	// could not make sense of.
	KindParse Kind = "parse"
	// KindFormat covers a well-formed document the exporter cannot
	// represent (unsupported feature, schema mismatch).
	KindFormat Kind = "format"
	// KindConfig covers invalid or missing configuration.
	KindConfig Kind = "config"
	// KindInference covers an ML backend failure (bad tensor shape,
	// backend unavailable, confidence below threshold).
	KindInference Kind = "inference"
	// KindCancelled covers context cancellation/deadline during a
	// pipeline run or DAG task.
	KindCancelled Kind = "cancelled"
	// KindInternal covers anything that should never happen.
	KindInternal Kind = "internal"
)

// Error is the rich error type returned throughout the pipeline.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// WithDetail attaches a key/value detail and returns e for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// MarshalJSON includes the rendered error string alongside the structured
// fields, matching the response body the media API server writes on error.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(&struct {
		*alias
		Error string `json:"error"`
	}{alias: (*alias)(e), Error: e.Error()})
}

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches message and kind to an existing error. If err is nil, Wrap
// returns nil so callers can write `return docerr.Wrap(err, ...)` directly
// after a fallible call. If err is already a *Error, its Kind is preserved
// unless kind is non-empty.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	if kind == "" {
		var inner *Error
		if errors.As(err, &inner) {
			kind = inner.Kind
		}
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// Is reports whether err or any error it wraps matches target, delegating
// to errors.Is so callers can test for sentinel causes wrapped by an Error.
func Is(err, target error) bool { return errors.Is(err, target) }

// As delegates to errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// KindOf extracts the Kind from err if it is (or wraps) a *Error, and
// KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind to the status code the media API server writes.
func HTTPStatus(k Kind) int {
	switch k {
	case KindParse, KindFormat, KindConfig:
		return http.StatusBadRequest
	case KindIO:
		return http.StatusBadGateway
	case KindInference:
		return http.StatusUnprocessableEntity
	case KindCancelled:
		return 499 // client closed request, nginx convention
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
