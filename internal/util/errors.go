package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrValidation         = errors.New("validation failed")
	ErrRecordExists       = errors.New("test record with this ID already exists")
	ErrRecordNotFound     = errors.New("test record not found")
	ErrNoGuardianEmail    = errors.New("no guardian email configured")
)
