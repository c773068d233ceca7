package auth

import "errors"

var (
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrSessionExpired     = errors.New("verification session not found or expired")
	ErrForbidden          = errors.New("only admins can manage staff")
	ErrInvalidRole        = errors.New("role must be associate or admin")
	ErrWeakPassword       = errors.New("password too weak")
)
