package chat_errors

import (
	"errors"
)

// Common errors
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTooLarge      = errors.New("file too large")
	ErrQuotaExceeded = errors.New("messaging quota exceeded")
	ErrNotUploaded   = errors.New("file not uploaded")
	ErrAlreadyExists = errors.New("already exists")
)
