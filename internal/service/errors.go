package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("transition not allowed from current status")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
