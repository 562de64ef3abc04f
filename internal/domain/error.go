package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnsupportedType  = errors.New("unsupported artifact type")
	ErrQueueUnavailable = errors.New("task queue unavailable")
	ErrJobTerminal      = errors.New("job already in a terminal state")
)
