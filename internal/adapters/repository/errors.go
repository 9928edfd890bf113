package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrClubNotFound  = errors.New("club not found")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrOutcomeExists = errors.New("outcome already stored")
)
