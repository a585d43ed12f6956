package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop"
	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/metrics"
)

// ConnectionManager tracks the WebSocket connections attached to each
// platform.
type ConnectionManager struct {
	connections map[string]map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	closed   bool
}

// Connection is one WebSocket client bound to a field of play subscription.
type Connection struct {
	ID       string
	Platform string
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	sub       *fop.Subscription
	closing   chan struct{}
	closeOnce sync.Once

	ConnectedAt time.Time
}

type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	PostTimeout     time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	AllowedOrigins  []string
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		PostTimeout:     5 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		AllowedOrigins:  []string{"*"},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	cm := &ConnectionManager{
		connections: make(map[string]map[*Connection]bool),
		config:      config,
	}
	cm.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     cm.checkOrigin,
	}
	return cm
}

func (cm *ConnectionManager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(cm.config.AllowedOrigins, "*") || slices.Contains(cm.config.AllowedOrigins, origin)
}

// Attach upgrades the request and subscribes the new connection to f. The
// first frame sent is a Hello carrying the origin and the registration
// snapshot; notifications follow in order.
func (cm *ConnectionManager) Attach(w http.ResponseWriter, r *http.Request, f *fop.FieldOfPlay, origin events.Origin) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		Platform:    f.Name(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBuffer),
		Manager:     cm,
		closing:     make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	// Notifications queue up in Send until the write pump starts, so the
	// hello frame below is always first on the wire.
	sub, err := f.Subscribe(r.Context(), origin, c.enqueue)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(cm.config.WriteTimeout))
		conn.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.sub = sub

	hello, err := json.Marshal(Hello{Type: FrameHello, Origin: sub.Origin(), Snapshot: sub.Snapshot()})
	if err != nil {
		c.close()
		return fmt.Errorf("failed to marshal hello: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		c.close()
		return fmt.Errorf("failed to write hello: %w", err)
	}

	if !cm.register(c) {
		c.close()
		return errors.New("gateway is closed")
	}

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("origin", string(sub.Origin())).
		Str("platform", c.Platform).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) register(c *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.closed {
		return false
	}

	if cm.connections[c.Platform] == nil {
		cm.connections[c.Platform] = make(map[*Connection]bool)
	}
	cm.connections[c.Platform][c] = true
	metrics.GatewayConnections.Inc()

	log.Debug().
		Str("connection_id", c.ID).
		Str("platform", c.Platform).
		Int("total_connections", len(cm.connections[c.Platform])).
		Msg("connection registered")
	return true
}

func (cm *ConnectionManager) unregister(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conns, ok := cm.connections[c.Platform]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(cm.connections, c.Platform)
	}
	metrics.GatewayConnections.Dec()

	log.Info().
		Str("connection_id", c.ID).
		Str("platform", c.Platform).
		Msg("connection unregistered")
}

// Stats summarises the open connections.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	Platforms        map[string]int `json:"platforms"`
}

func (cm *ConnectionManager) Stats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := Stats{Platforms: make(map[string]int, len(cm.connections))}
	for platform, conns := range cm.connections {
		stats.TotalConnections += len(conns)
		stats.Platforms[platform] = len(conns)
	}
	return stats
}

// Close disconnects every client and refuses new ones.
func (cm *ConnectionManager) Close() {
	cm.mu.Lock()
	cm.closed = true
	var all []*Connection
	for _, conns := range cm.connections {
		for c := range conns {
			all = append(all, c)
		}
	}
	cm.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}

// enqueue is the subscription handler. Blocking here is what lets the field
// of play evict a client that stops reading.
func (c *Connection) enqueue(n events.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal notification")
		return
	}
	select {
	case c.Send <- data:
	case <-c.closing:
	}
}

// close tears the connection down. Safe from any goroutine except the
// subscription handler.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closing)
		if c.sub != nil {
			_ = c.sub.Close()
		}
		c.Conn.Close()
		c.Manager.unregister(c)
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closing:
			return

		case <-c.sub.Done():
			// evicted or the field of play shut down
			reason := "subscription closed"
			code := websocket.CloseNormalClosure
			if err := c.sub.Err(); err != nil {
				reason = err.Error()
				code = websocket.CloseGoingAway
				if errors.Is(err, fop.ErrSlowSubscriber) {
					code = websocket.CloseTryAgainLater
				}
			}
			c.drain()
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason),
				time.Now().Add(c.Manager.config.WriteTimeout))
			return

		case message := <-c.Send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// drain flushes notifications queued before the subscription ended.
func (c *Connection) drain() {
	for {
		select {
		case message := <-c.Send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
	return c.Conn.WriteMessage(messageType, data)
}

func (c *Connection) readPump() {
	defer c.close()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage posts a command frame. The connection's origin always
// wins over one carried in the frame.
func (c *Connection) handleClientMessage(message []byte) {
	_, cmd, err := events.DecodeCommand(message)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("rejected client frame")
		c.reply(ErrorFrame{Type: FrameError, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.PostTimeout)
	defer cancel()
	if err := c.sub.Post(ctx, cmd); err != nil {
		c.reply(ErrorFrame{Type: FrameError, Error: err.Error()})
	}
}

// reply queues a frame without blocking the read loop.
func (c *Connection) reply(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping reply")
	}
}
