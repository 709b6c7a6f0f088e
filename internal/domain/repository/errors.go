package repository

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateEmail      = errors.New("email already in use")
	ErrDuplicateProviderID = errors.New("provider account already linked")
	ErrProviderLinked      = errors.New("user already linked to another account of this provider")
	ErrSessionNotFound     = errors.New("session not found")
)
