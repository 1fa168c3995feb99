package cryptex_errors

import "errors"

// Common errors
var (
	ErrAlreadyJoined      = errors.New("already joined room")
	ErrSessionClosed      = errors.New("session closed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrQueueFull          = errors.New("queue full")
	ErrServiceUnavailable = errors.New("service unavailable")
)
