package gateway

import (
	"github.com/mcdev12/barbell/go/internal/fop"
	"github.com/mcdev12/barbell/go/internal/fop/events"
)

// Frame types the gateway writes besides notifications.
const (
	FrameHello = "Hello"
	FrameError = "Error"
)

// Hello is the first frame of every WebSocket connection.
type Hello struct {
	Type     string        `json:"type"`
	Origin   events.Origin `json:"origin"`
	Snapshot fop.Snapshot  `json:"snapshot"`
}

// ErrorFrame reports a client frame that could not be posted.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// PlatformSummary is one entry of GET /api/platforms.
type PlatformSummary struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Group       string `json:"group,omitempty"`
	Seq         uint64 `json:"seq"`
	Subscribers int    `json:"subscribers"`
}

// CommandAccepted is the body of a successful POST .../commands.
type CommandAccepted struct {
	Status string        `json:"status"`
	Origin events.Origin `json:"origin,omitempty"`
}
