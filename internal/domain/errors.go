package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for routing and user messaging.
type ErrorKind string

const (
	ErrKindCaptureTimeout ErrorKind = "capture-timeout"
	ErrKindEmptySelection ErrorKind = "empty-selection-on-replace"
	ErrKindTransient      ErrorKind = "capability-transient"
	ErrKindFatal          ErrorKind = "capability-fatal"
	ErrKindCancelled      ErrorKind = "cancelled"
	ErrKindPersistence    ErrorKind = "persistence-failure"
)

// Sentinel errors raised before a request ever reaches the capability.
var (
	ErrCaptureTimeout             = errors.New("no clipboard change observed within the capture budget")
	ErrEmptySelectionOnReplace    = errors.New("replace operation requires selected text")
	ErrIncompatibleTransformation = errors.New("the text is incompatible with the requested change")
)

// PersistenceError marks a session store failure. The conversation content
// already reached the surface; only the saved copy is affected.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "session save: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// CapabilityError wraps a failure from an AI backend with its classification.
type CapabilityError struct {
	Kind     ErrorKind
	Provider string
	Status   int
	Err      error
}

func (e *CapabilityError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth one automatic retry.
func (e *CapabilityError) Transient() bool { return e.Kind == ErrKindTransient }

// KindOf maps an arbitrary pipeline error onto its ErrorKind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ErrKindCancelled
	case errors.Is(err, ErrCaptureTimeout):
		return ErrKindCaptureTimeout
	case errors.Is(err, ErrEmptySelectionOnReplace):
		return ErrKindEmptySelection
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return ErrKindPersistence
	}
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Kind
	}
	return ErrKindFatal
}

// IsTransient reports whether err should be retried exactly once.
func IsTransient(err error) bool {
	var capErr *CapabilityError
	return errors.As(err, &capErr) && capErr.Transient()
}
