// Package apperr defines the structured error taxonomy shared by every
// stage of the episode pipeline. Inner components raise values of type
// *Error; only a worker's top-level handler inspects Kind and decides what
// happens to the episode record and the queue message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the worker's top-level handler.
type Kind string

const (
	// KindValidation covers missing input or unresolvable references
	// (episode_id absent, config not found). Fail fast, mark the episode
	// failed, never retry.
	KindValidation Kind = "validation"

	// KindTransientLocal covers local/adjacent-service hiccups (blob 5xx,
	// DB connection drop). Retry in place with exponential backoff.
	KindTransientLocal Kind = "transient_local"

	// KindDeferrable covers TTS rate limits, TTS timeouts, insufficient
	// invocation budget, and the chunk manager's circuit breaker. The
	// episode returns to script_ready and the message is redelivered.
	KindDeferrable Kind = "deferrable"

	// KindFatalExternal covers exhausted chunk retries, post-generation
	// placeholder detection, and impossible voice selection. The episode
	// is marked failed; no partial audio is ever published.
	KindFatalExternal Kind = "fatal_external"

	// KindSoftWarning covers a low script quality score or a transcript
	// upload failure — attached to the processing log, never blocks
	// publication.
	KindSoftWarning Kind = "soft_warning"
)

// Error is the structured value every component raises instead of mutating
// episode state directly.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retriable reports whether the error's kind warrants an in-place retry
// loop (bounded, exponential backoff) rather than surfacing immediately.
func (e *Error) Retriable() bool { return e.Kind == KindTransientLocal }

// Deferrable reports whether the error's kind should return the episode to
// script_ready and redeliver the queue message, as opposed to marking the
// episode failed.
func (e *Error) Deferrable() bool { return e.Kind == KindDeferrable }

// New builds a *Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails attaches structured detail fields and returns the receiver
// for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Validation builds a KindValidation error.
func Validation(message string, err error) *Error { return New(KindValidation, message, err) }

// TransientLocal builds a KindTransientLocal error.
func TransientLocal(message string, err error) *Error { return New(KindTransientLocal, message, err) }

// Deferrable builds a KindDeferrable error. This is the Go counterpart of
// the original system's DeferrableError.
func Deferrable(message string, err error) *Error { return New(KindDeferrable, message, err) }

// FatalExternal builds a KindFatalExternal error.
func FatalExternal(message string, err error) *Error { return New(KindFatalExternal, message, err) }

// SoftWarning builds a KindSoftWarning error. Callers typically attach this
// to a processing log row rather than returning it up the call stack.
func SoftWarning(message string, err error) *Error { return New(KindSoftWarning, message, err) }

// IsDeferrable reports whether err (or anything it wraps) is a *Error with
// Kind == KindDeferrable.
func IsDeferrable(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindDeferrable
}
