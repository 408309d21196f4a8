package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned by CreateUser when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned by CreateUser when the email is registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown user and a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrStorage marks a failure of the durable store itself.
	ErrStorage = errors.New("storage unavailable")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
