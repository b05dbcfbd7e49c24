package domain

import "errors"

var (
	ErrUpstream     = errors.New("match provider unavailable")
	ErrPersistence  = errors.New("persistence failure")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
