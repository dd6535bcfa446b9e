package database

import "errors"

var (
	// ErrNotReady indicates the startup ping has not succeeded.
	ErrNotReady = errors.New("database not ready")
	// ErrInvalidConfig indicates connection settings failed validation.
	ErrInvalidConfig = errors.New("invalid database config")
)
