package domain

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrRateLimited    = errors.New("rate limited")

	ErrNameTooLong   = errors.New("name too long")
	ErrImageTooLarge = errors.New("image too large")
	ErrEmptyField    = errors.New("empty field")
)

// IsInvalid reports whether err belongs to the invalid-payload family.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrNameTooLong) ||
		errors.Is(err, ErrImageTooLarge) ||
		errors.Is(err, ErrEmptyField)
}
