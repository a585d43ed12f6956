package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop"
	"github.com/mcdev12/barbell/go/internal/fop/events"
)

// OriginHeader carries the caller's correlation token on REST commands.
const OriginHeader = "X-Origin"

const maxCommandBody = 64 << 10

// HandleListPlatforms handles GET /api/platforms
func (s *Service) HandleListPlatforms(w http.ResponseWriter, r *http.Request) {
	names := s.registry.List()
	out := make([]PlatformSummary, 0, len(names))
	for _, name := range names {
		f, ok := s.registry.Lookup(name)
		if !ok {
			continue
		}
		snap := f.Snapshot()
		out = append(out, PlatformSummary{
			Name:        name,
			State:       string(snap.State),
			Group:       snap.Group,
			Seq:         snap.Seq,
			Subscribers: f.Subscribers(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"platforms": out})
}

// HandleGetState handles GET /api/platforms/{platform}/state
func (s *Service) HandleGetState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "platform")
	f, ok := s.registry.Lookup(name)
	if !ok {
		http.Error(w, "platform not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, f.Snapshot())
}

// HandlePostCommand handles POST /api/platforms/{platform}/commands. The
// command is queued, not applied: 202 says nothing about the guards, whose
// outcome arrives as a notification (or a Denied notice to the origin).
func (s *Service) HandlePostCommand(w http.ResponseWriter, r *http.Request) {
	f, ok := s.platform(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusRequestEntityTooLarge)
		return
	}
	origin, cmd, err := events.DecodeCommand(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h := r.Header.Get(OriginHeader); h != "" {
		origin = events.Origin(h)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ConnectionConfig.PostTimeout)
	defer cancel()
	if err := f.Post(ctx, origin, cmd); err != nil {
		log.Error().Err(err).Str("platform", f.Name()).Str("kind", string(cmd.Kind())).Msg("failed to post command")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, CommandAccepted{Status: "accepted", Origin: origin})
}

// HandleListGroups handles GET /api/groups
func (s *Service) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	names, err := s.groups.Names(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list groups")
		http.Error(w, "failed to list groups", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": names})
}

// HandleConnection handles GET /ws/platforms/{platform}
func (s *Service) HandleConnection(w http.ResponseWriter, r *http.Request) {
	f, ok := s.platform(w, r)
	if !ok {
		return
	}
	origin := events.Origin(r.URL.Query().Get("origin"))

	// After a successful upgrade the response is hijacked; errors are only logged.
	if err := s.connections.Attach(w, r, f, origin); err != nil {
		log.Error().
			Err(err).
			Str("platform", f.Name()).
			Str("origin", string(origin)).
			Msg("failed to attach WebSocket connection")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (s *Service) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.connections.Stats())
}

// platform resolves the path parameter, starting the field of play on first
// use when the registry allows it.
func (s *Service) platform(w http.ResponseWriter, r *http.Request) (*fop.FieldOfPlay, bool) {
	f, err := s.registry.Get(chi.URLParam(r, "platform"))
	switch {
	case err == nil:
		return f, true
	case errors.Is(err, fop.ErrInvalidPlatform):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, fop.ErrUnknownPlatform):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
