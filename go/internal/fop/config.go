package fop

import (
	"time"

	"github.com/mcdev12/barbell/go/internal/models"
)

// Config holds the timing parameters of a field of play.
type Config struct {
	AthleteClock     time.Duration // clock given to an athlete called to the bar
	ConsecutiveClock time.Duration // clock when the same athlete lifts twice in a row
	Debounce         time.Duration // minimum gap between two clock starts (or stops)
	TickInterval     time.Duration
	InboxSize        int
	SubscriberBuffer int
	DeliveryTimeout  time.Duration
	GroupLoadTimeout time.Duration

	// BreakDurations are used by DURATION breaks requested without millis.
	BreakDurations map[models.BreakType]time.Duration
	DefaultBreak   time.Duration

	Expiry ExpiryPolicy
}

// DefaultConfig returns the competition rule defaults.
func DefaultConfig() Config {
	return Config{
		AthleteClock:     60 * time.Second,
		ConsecutiveClock: 120 * time.Second,
		Debounce:         100 * time.Millisecond,
		TickInterval:     100 * time.Millisecond,
		InboxSize:        256,
		SubscriberBuffer: 64,
		DeliveryTimeout:  100 * time.Millisecond,
		GroupLoadTimeout: 5 * time.Second,
		BreakDurations: map[models.BreakType]time.Duration{
			models.BreakFirstSnatch: 10 * time.Minute,
			models.BreakFirstCJ:     10 * time.Minute,
		},
		DefaultBreak: 10 * time.Minute,
		Expiry:       FreezeOnExpiry,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AthleteClock <= 0 {
		c.AthleteClock = d.AthleteClock
	}
	if c.ConsecutiveClock <= 0 {
		c.ConsecutiveClock = d.ConsecutiveClock
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = d.SubscriberBuffer
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = d.DeliveryTimeout
	}
	if c.GroupLoadTimeout <= 0 {
		c.GroupLoadTimeout = d.GroupLoadTimeout
	}
	if c.BreakDurations == nil {
		c.BreakDurations = d.BreakDurations
	}
	if c.DefaultBreak <= 0 {
		c.DefaultBreak = d.DefaultBreak
	}
	if c.Expiry == nil {
		c.Expiry = d.Expiry
	}
	return c
}

func (c Config) breakDuration(bt models.BreakType) time.Duration {
	if d, ok := c.BreakDurations[bt]; ok && d > 0 {
		return d
	}
	return c.DefaultBreak
}
