package events

import (
	"time"

	"github.com/mcdev12/barbell/go/internal/models"
)

// Notification payload types shared by the engine, the gateway and the relay.

// TimePayload is the payload of TimeStarted, TimeStopped, ForceTime and TimeOver.
type TimePayload struct {
	AthleteID       string `json:"athlete_id,omitempty"`
	RemainingMillis int64  `json:"remaining_ms"`
}

// BreakPayload is the payload of BreakStarted, BreakPaused, BreakDone and BreakTimeOver.
type BreakPayload struct {
	BreakType       models.BreakType     `json:"break_type,omitempty"`
	CountdownType   models.CountdownType `json:"countdown_type,omitempty"`
	RemainingMillis *int64               `json:"remaining_ms,omitempty"` // nil when indefinite
	Target          *time.Time           `json:"target,omitempty"`
	Paused          bool                 `json:"paused,omitempty"`
	State           models.FOPState      `json:"state"`
}

// GroupPayload is the payload of SwitchGroup.
type GroupPayload struct {
	Group string `json:"group,omitempty"`
}

// CeremonyPayload is the payload of CeremonyStarted and CeremonyDone.
type CeremonyPayload struct {
	Ceremony models.CeremonyType `json:"ceremony"`
	Group    string              `json:"group,omitempty"`
	Category string              `json:"category,omitempty"`
}

// OrderEntry is one line of the lifting order.
type OrderEntry struct {
	AthleteID string `json:"athlete_id"`
	Name      string `json:"name"`
	Team      string `json:"team,omitempty"`
	Attempt   int    `json:"attempt"` // 1..6, 0 when finished
	Weight    int    `json:"weight"`
}

// LiftingOrderPayload is the payload of StartLifting and LiftingOrderUpdated.
type LiftingOrderPayload struct {
	Group            string       `json:"group,omitempty"`
	CurrentAthleteID string       `json:"current_athlete_id,omitempty"`
	Order            []OrderEntry `json:"order"`
	RemainingMillis  int64        `json:"remaining_ms"`
}

// DecisionPayload is the payload of Decision.
type DecisionPayload struct {
	AthleteID string `json:"athlete_id"`
	Attempt   int    `json:"attempt"`
	Weight    int    `json:"weight"`
	Good      bool   `json:"good"`
}

// WeightChangePayload is the payload of WeightChange.
type WeightChangePayload struct {
	AthleteID string `json:"athlete_id"`
	Attempt   int    `json:"attempt"`
	Weight    int    `json:"weight"`
}

// NoticePayload is the payload of Notification and JuryNotification.
type NoticePayload struct {
	Code      Code   `json:"code"`
	AthleteID string `json:"athlete_id,omitempty"`
}

// DeniedPayload explains to the originating console why a command was rejected.
type DeniedPayload struct {
	Command Kind   `json:"command"`
	Reason  string `json:"reason"`
}
