package auth

import "errors"

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidConfirmationCode  = errors.New("invalid confirmation code")
	ErrInvalidToken             = errors.New("invalid or expired token")
	ErrUserInactive             = errors.New("user is not activated")
	ErrConfirmationCodeDelivery = errors.New("failed to deliver confirmation code")
)
