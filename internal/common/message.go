package common

import (
	"errors"
	"fmt"
)

// MessageError pairs a sentinel with a message safe to show to clients.
type MessageError struct {
	Kind    error
	Message string
}

func (e *MessageError) Error() string { return e.Kind.Error() + ": " + e.Message }
func (e *MessageError) Unwrap() error { return e.Kind }

// WithMessage wraps kind so that errors.Is(err, kind) holds and
// PublicMessage returns the formatted text.
func WithMessage(kind error, format string, args ...any) error {
	return &MessageError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// PublicMessage returns the client-facing message carried by err, or
// fallback when there is none.
func PublicMessage(err error, fallback string) string {
	var me *MessageError
	if errors.As(err, &me) {
		return me.Message
	}
	return fallback
}
