package session

import "errors"

// Errors for store operations.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrNotFound         = errors.New("session not found")
	ErrAlreadyExists    = errors.New("session already exists")
	ErrStoreClosed      = errors.New("session store closed")
	ErrNoStore          = errors.New("no session store configured")
)
