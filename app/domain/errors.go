package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidRequest = errors.New("invalid request")
	ErrValidation     = errors.New("validation error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotAllowed     = errors.New("not allowed")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInternal       = errors.New("internal server error")
)
