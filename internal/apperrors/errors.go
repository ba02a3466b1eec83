package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Returned for bad credentials. The same error covers "no such user"
	// and "wrong password" so callers can't enumerate accounts.
	ErrAuthenticationFailed = errors.New("authentication failed")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenReused   = errors.New("refresh token already rotated")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrMediaUploadFailed = errors.New("media upload failed")
)
