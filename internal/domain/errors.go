package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can decide whether to retry.
// TransientFault and Timeout are retryable; everything else is deterministic
// and surfaces immediately.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindDuplicate          Kind = "DUPLICATE_RESOURCE"
	KindBusinessRejection  Kind = "BUSINESS_REJECTION"
	KindTransient          Kind = "TRANSIENT_FAULT"
	KindThrottled          Kind = "THROTTLED"
	KindTimeout            Kind = "TIMEOUT"
	KindCompensationFailed Kind = "COMPENSATION_FAILED"
)

// Error is the typed error carried across component boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func BusinessRejection(message string) *Error {
	return &Error{Kind: KindBusinessRejection, Message: message}
}

func Transient(message string, cause error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: cause}
}

func Throttled(message string) *Error {
	return &Error{Kind: KindThrottled, Message: message}
}

func Timeout(message string, cause error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: cause}
}

func CompensationFailed(message string) *Error {
	return &Error{Kind: KindCompensationFailed, Message: message}
}

// KindOf extracts the classification of err, or empty when err is untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFault reports whether err is an infrastructure failure rather than a
// deterministic outcome. Untyped errors are treated as faults: an unknown
// failure from a backend is exactly what the retry and breaker policies
// exist for.
func IsFault(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindDuplicate, KindBusinessRejection, KindThrottled, KindCompensationFailed:
		return false
	}
	return true
}

// IsRetryable reports whether a retry attempt may change the outcome.
func IsRetryable(err error) bool {
	return IsFault(err)
}
