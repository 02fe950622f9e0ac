package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrInsufficientCredits indicates a debit would take the balance below zero.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrVersionConflict indicates a concurrent writer updated the row first.
	ErrVersionConflict = errors.New("request version conflict")
)
