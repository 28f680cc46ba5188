package services

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrConflict is returned when a unique identifier is already registered.
	ErrConflict = errors.New("already exists")

	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyListed    = errors.New("land is already listed for sale")
	ErrAlreadyProcessed = errors.New("request has already been processed")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidStatistic = errors.New("invalid statistic field")

	// ErrStorageDisabled is returned for file operations when no object
	// storage backend is configured.
	ErrStorageDisabled = errors.New("file storage is not configured")
)
