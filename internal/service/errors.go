package service

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, inactive account and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidOrExpiredOtp covers wrong, already used and expired codes alike.
	ErrInvalidOrExpiredOtp = errors.New("invalid or expired otp")
	ErrRateLimited         = errors.New("otp requested too recently")
	// ErrUnauthenticated covers unknown, expired and revoked tokens alike.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInactiveUser    = errors.New("user inactive")

	ErrUserNotFound             = errors.New("user not found")
	ErrEmailTaken               = errors.New("email already registered")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrCannotRemoveSelf         = errors.New("cannot remove own account")
	ErrUnsupportedImage         = errors.New("unsupported image")
)
