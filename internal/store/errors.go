package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrConditionFailed is returned by conditional writes that matched no row
	// because the observed state changed in between.
	ErrConditionFailed = errors.New("condition no longer holds")
)
