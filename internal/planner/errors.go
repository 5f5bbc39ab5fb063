package planner

import "errors"

// Planner errors
var (
	ErrAlreadyExists = errors.New("entity already exists")
	ErrNotFound      = errors.New("entity not found")
	ErrUnknownKind   = errors.New("unknown entity kind")
	ErrNoRanges      = errors.New("tax bracket has no ranges")
	ErrInvalidInput  = errors.New("invalid input")
)
