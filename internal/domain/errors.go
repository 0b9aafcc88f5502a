package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrNoSoundFiles      = errors.New("no sound files for code")
	ErrUnhandledIntent   = errors.New("intent has no handler")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)
