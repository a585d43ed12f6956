package fop

import "errors"

var (
	ErrClosed           = errors.New("field of play is closed")
	ErrDetached         = errors.New("subscription is closed")
	ErrSlowSubscriber   = errors.New("subscriber evicted: delivery queue full")
	ErrInvalidPlatform  = errors.New("invalid platform name")
	ErrUnknownPlatform  = errors.New("platform not configured")
	ErrInvalidState     = errors.New("command not allowed in current state")
	ErrMissingBreakType = errors.New("break type is required")
	ErrNoGroup          = errors.New("no group selected")
	ErrNoAthlete        = errors.New("no athlete to lift")
	ErrCeremonyActive   = errors.New("another ceremony is active")
	ErrUnknownAthlete   = errors.New("athlete not in group")
	ErrWeightTooLow     = errors.New("weight below minimum")
)

// Silent rejections: the command is dropped without a diagnostic notice.
var (
	errDebounced = errors.New("debounced")
	errIgnored   = errors.New("already applied")
)
