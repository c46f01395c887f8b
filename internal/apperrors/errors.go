package apperrors

import (
	"errors"
)

var (
	ErrShutdown = errors.New("shutdown error")

	// ErrInvalidInput is a client bug: a required field is missing or empty.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMessageDoesNotExist is returned for unknown or already removed ids.
	// Callers retrying a removal must treat it as "already handled".
	ErrMessageDoesNotExist = errors.New("message does not exist")
	ErrPermissionDenied    = errors.New("permission denied")

	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserDoesNotExist  = errors.New("user does not exist")

	ErrRelayClosed = errors.New("relay is closed")
)
