package service

import "errors"

// Authentication failures collapse to ErrInvalidCredentials: unknown user and
// wrong password are indistinguishable to callers.
var (
	ErrInvalidCredentials      = errors.New("invalid username and/or password")
	ErrAccountLocked           = errors.New("account temporarily locked")
	ErrServiceUnavailable      = errors.New("authentication service unavailable")
	ErrReauthRequired          = errors.New("re-authentication required for sensitive operations")
	ErrPasswordReused          = errors.New("password has been used recently")
	ErrPasswordTooNew          = errors.New("password must be at least 24 hours old before it can be changed")
	ErrUserExists              = errors.New("user already exists")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidSecurityQuestion = errors.New("invalid security question")
	ErrUserNotFound            = errors.New("user not found")
)
