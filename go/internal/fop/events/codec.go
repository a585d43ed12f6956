package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/barbell/go/internal/models"
)

var (
	ErrUnknownCommand = errors.New("unknown command type")
	ErrMalformed      = errors.New("malformed command")
)

// Wire is the JSON form of a command as sent by consoles over HTTP or WebSocket.
type Wire struct {
	Type            Kind                 `json:"type"`
	Origin          Origin               `json:"origin,omitempty"`
	Millis          int64                `json:"millis,omitempty"`
	RemainingMillis int64                `json:"remaining_ms,omitempty"`
	BreakType       models.BreakType     `json:"break_type,omitempty"`
	CountdownType   models.CountdownType `json:"countdown_type,omitempty"`
	Target          *time.Time           `json:"target,omitempty"`
	Group           string               `json:"group,omitempty"`
	Category        string               `json:"category,omitempty"`
	Ceremony        models.CeremonyType  `json:"ceremony,omitempty"`
	AthleteID       string               `json:"athlete_id,omitempty"`
	Weight          int                  `json:"weight,omitempty"`
	Good            *bool                `json:"good,omitempty"`
	Code            Code                 `json:"code,omitempty"`
}

// DecodeCommand parses a JSON command. The origin embedded in the payload is
// returned alongside and may be empty.
func DecodeCommand(data []byte) (Origin, Command, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	cmd, err := w.Command()
	if err != nil {
		return "", nil, err
	}
	return w.Origin, cmd, nil
}

// Command converts the wire form into a typed command. Only structural
// problems are reported here; whether the command is allowed is decided by
// the field of play.
func (w Wire) Command() (Command, error) {
	switch w.Type {
	case KindStartLifting:
		return StartLifting{}, nil
	case KindTimeStarted:
		return TimeStarted{}, nil
	case KindTimeStopped:
		return TimeStopped{}, nil
	case KindForceTime:
		if w.Millis < 0 {
			return nil, fmt.Errorf("%w: negative millis", ErrMalformed)
		}
		return ForceTime{Millis: w.Millis}, nil
	case KindBreakStarted:
		return BreakStarted{
			BreakType:     w.BreakType,
			CountdownType: w.CountdownType,
			Millis:        w.Millis,
			Target:        w.Target,
		}, nil
	case KindBreakPaused:
		return BreakPaused{RemainingMillis: w.RemainingMillis}, nil
	case KindBreakDone:
		return BreakDone{}, nil
	case KindSwitchGroup:
		return SwitchGroup{Group: w.Group}, nil
	case KindCeremonyStarted:
		return CeremonyStarted{Ceremony: w.Ceremony, Group: w.Group, Category: w.Category}, nil
	case KindCeremonyDone:
		return CeremonyDone{Ceremony: w.Ceremony}, nil
	case KindWeightChange:
		if w.AthleteID == "" {
			return nil, fmt.Errorf("%w: athlete_id is required", ErrMalformed)
		}
		return WeightChange{AthleteID: w.AthleteID, Weight: w.Weight}, nil
	case KindDecision:
		if w.Good == nil {
			return nil, fmt.Errorf("%w: good is required", ErrMalformed)
		}
		return Decision{Good: *w.Good}, nil
	case KindNotification:
		if w.Code == "" {
			return nil, fmt.Errorf("%w: code is required", ErrMalformed)
		}
		return Notify{Code: w.Code}, nil
	case KindJuryNotification:
		if w.Code == "" {
			return nil, fmt.Errorf("%w: code is required", ErrMalformed)
		}
		return JuryNotify{Code: w.Code, AthleteID: w.AthleteID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, w.Type)
	}
}

// EncodeCommand is the inverse of DecodeCommand.
func EncodeCommand(origin Origin, cmd Command) ([]byte, error) {
	w := Wire{Type: cmd.Kind(), Origin: origin}
	switch c := cmd.(type) {
	case ForceTime:
		w.Millis = c.Millis
	case BreakStarted:
		w.BreakType, w.CountdownType, w.Millis, w.Target = c.BreakType, c.CountdownType, c.Millis, c.Target
	case BreakPaused:
		w.RemainingMillis = c.RemainingMillis
	case SwitchGroup:
		w.Group = c.Group
	case CeremonyStarted:
		w.Ceremony, w.Group, w.Category = c.Ceremony, c.Group, c.Category
	case CeremonyDone:
		w.Ceremony = c.Ceremony
	case WeightChange:
		w.AthleteID, w.Weight = c.AthleteID, c.Weight
	case Decision:
		good := c.Good
		w.Good = &good
	case Notify:
		w.Code = c.Code
	case JuryNotify:
		w.Code, w.AthleteID = c.Code, c.AthleteID
	}
	return json.Marshal(w)
}
