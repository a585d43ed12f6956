// Package events defines what flows through a field of play: commands posted
// by consoles and notifications fanned out to every subscriber.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the discriminator shared by commands and notifications.
type Kind string

const (
	KindStartLifting        Kind = "StartLifting"
	KindTimeStarted         Kind = "TimeStarted"
	KindTimeStopped         Kind = "TimeStopped"
	KindForceTime           Kind = "ForceTime"
	KindBreakStarted        Kind = "BreakStarted"
	KindBreakPaused         Kind = "BreakPaused"
	KindBreakDone           Kind = "BreakDone"
	KindSwitchGroup         Kind = "SwitchGroup"
	KindCeremonyStarted     Kind = "CeremonyStarted"
	KindCeremonyDone        Kind = "CeremonyDone"
	KindWeightChange        Kind = "WeightChange"
	KindDecision            Kind = "Decision"
	KindLiftingOrderUpdated Kind = "LiftingOrderUpdated"
	KindNotification        Kind = "Notification"
	KindJuryNotification    Kind = "JuryNotification"
	KindTimeOver            Kind = "TimeOver"
	KindBreakTimeOver       Kind = "BreakTimeOver"
	KindDenied              Kind = "Denied"
)

// Origin is the opaque correlation token of whoever issued a command.
// Notifications caused by a command carry the same token back.
type Origin string

// OriginClock marks notifications produced by a clock running out rather
// than by a command.
const OriginClock Origin = "fop.clock"

// NewOrigin issues a fresh correlation token.
func NewOrigin() Origin {
	return Origin(uuid.NewString())
}

// Notification is an immutable event broadcast by a field of play. Seq
// numbers broadcasts only; private notices have Seq 0.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Seq       uint64    `json:"seq"`
	Platform  string    `json:"platform"`
	Kind      Kind      `json:"type"`
	Origin    Origin    `json:"origin,omitempty"`
	Recipient Origin    `json:"recipient,omitempty"` // set on private notices
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Private reports whether the notification is addressed to a single subscriber.
func (n Notification) Private() bool {
	return n.Recipient != ""
}
