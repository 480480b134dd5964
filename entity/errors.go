package entity

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrUpstream          = errors.New("upstream provider failure")
	ErrInsufficientStock = errors.New("insufficient stock")
)
