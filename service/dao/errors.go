package dao

import "errors"

var (
	// ErrNotFound is returned by Load and Delete for a missing key
	ErrNotFound = errors.New("dao: not found")
	// ErrInvalidID is returned when an entity key is empty
	ErrInvalidID = errors.New("dao: invalid id")
	ErrNilEntity = errors.New("dao: nil entity")
)
