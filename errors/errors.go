// Package errors provides the closed set of JSON-LD processing error codes
// and helpers for constructing, wrapping, and classifying them consistently
// across the engine.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies one kind of JSON-LD processing error. The values are the
// error strings defined by the JSON-LD 1.1 API so they survive serialization
// to other processors unchanged.
type Code string

const (
	// Context structure errors
	InvalidLocalContext         Code = "invalid local context"
	InvalidContextEntry         Code = "invalid context entry"
	InvalidContextNullification Code = "invalid context nullification"
	InvalidBaseIRI              Code = "invalid base IRI"
	InvalidVocabMapping         Code = "invalid vocab mapping"
	InvalidDefaultLanguage      Code = "invalid default language"
	InvalidBaseDirection        Code = "invalid base direction"
	InvalidVersionValue         Code = "invalid @version value"
	ProcessingModeConflict      Code = "processing mode conflict"

	// Term definition errors
	CyclicIRIMapping          Code = "cyclic IRI mapping"
	KeywordRedefinition       Code = "keyword redefinition"
	InvalidTermDefinition     Code = "invalid term definition"
	InvalidIRIMapping         Code = "invalid IRI mapping"
	InvalidKeywordAlias       Code = "invalid keyword alias"
	InvalidTypeMapping        Code = "invalid type mapping"
	InvalidContainerMapping   Code = "invalid container mapping"
	InvalidLanguageMapping    Code = "invalid language mapping"
	InvalidNestValue          Code = "invalid @nest value"
	InvalidPrefixValue        Code = "invalid @prefix value"
	InvalidIndexValue         Code = "invalid @index value"
	ProtectedTermRedefinition Code = "protected term redefinition"

	// Remote context errors
	RecursiveContextInclusion  Code = "recursive context inclusion"
	ContextOverflow            Code = "context overflow"
	LoadingRemoteContextFailed Code = "loading remote context failed"
	InvalidRemoteContext       Code = "invalid remote context"

	// Compaction errors
	IRIConfusedWithPrefix Code = "IRI confused with prefix"
)

// String returns the code's JSON-LD error string.
func (c Code) String() string {
	return string(c)
}

// Transient reports whether errors of this code may succeed on retry.
// Only remote loading failures qualify; everything else reflects invalid
// input and retrying cannot help.
func (c Code) Transient() bool {
	return c == LoadingRemoteContextFailed
}

// Error is a JSON-LD processing error. It carries the offending term or
// value when one exists and, for remote failures, the underlying cause.
type Error struct {
	Code   Code
	Detail string
	Term   string // offending term, if any
	Value  any    // offending value, if any
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Term != "" {
		msg += fmt.Sprintf(" (term %q)", e.Term)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so callers can
// match with errors.Is against a bare &Error{Code: ...}.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New creates an error with the given code and formatted detail.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// NewTerm creates an error attributed to a specific term.
func NewTerm(code Code, term string, format string, args ...any) *Error {
	return &Error{Code: code, Term: term, Detail: fmt.Sprintf(format, args...)}
}

// NewValue creates an error attributed to a specific offending value.
func NewValue(code Code, value any, format string, args ...any) *Error {
	return &Error{Code: code, Value: value, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with the given code wrapping an underlying cause.
// Returns nil if cause is nil.
func Wrap(code Code, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the code from an error chain, or "" when the chain holds
// no JSON-LD error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether the error chain contains a JSON-LD error with the
// given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsTransient reports whether the error may succeed on retry. Loading
// failures are transient; all validation errors are not.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Transient()
	}
	return false
}

// IsInvalid reports whether the error reflects invalid input (any JSON-LD
// code except remote loading failures).
func IsInvalid(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return !e.Code.Transient()
	}
	return false
}
