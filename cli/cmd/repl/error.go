package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrNoSource     = errors.New("no source file")
	ErrUsage        = errors.New("usage")
	ErrUnknown      = errors.New("unknown command")
)
