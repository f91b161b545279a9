package repository

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInsufficient = errors.New("insufficient inventory")
	ErrExhausted    = errors.New("discount code exhausted")
	ErrSoldGuard    = errors.New("quantity below sold count")
)
