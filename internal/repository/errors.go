package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// An UPDATE that was expected to touch one row touched none.
	ErrNoRowsAffected = errors.New("no rows affected")

	ErrDuplicateKey = errors.New("duplicate key")
)
