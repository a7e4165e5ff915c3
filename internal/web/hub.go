package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/gate-dialer/internal/display"
	"github.com/sweeney/gate-dialer/internal/gate"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// DefaultFrameInterval caps how often ring frames are pushed to browsers.
	// The gate renders far faster; intermediate frames are dropped (latest wins).
	DefaultFrameInterval = 40 * time.Millisecond
)

// HubConfig configures a Hub. Zero values get conservative defaults.
type HubConfig struct {
	// SendBuf is the per-client outbound queue size.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size.
	BroadcastBuf int

	// FrameInterval is the minimum spacing between frame broadcasts.
	FrameInterval time.Duration
}

// Hub fans the live ring view out to websocket clients. It implements
// display.Renderer, so the gate can render straight into it.
type Hub struct {
	logger *slog.Logger

	broadcast chan []byte
	sendBuf   int
	interval  time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}

	frameMu sync.Mutex
	frame   display.Frame
	dirty   bool
	hasLast bool
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.SendBuf <= 0 {
		cfg.SendBuf = 32
	}
	if cfg.BroadcastBuf <= 0 {
		cfg.BroadcastBuf = 128
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	return &Hub{
		logger:    logger,
		broadcast: make(chan []byte, cfg.BroadcastBuf),
		sendBuf:   cfg.SendBuf,
		interval:  cfg.FrameInterval,
		clients:   make(map[*client]struct{}),
	}
}

// Render records the latest frame. It never blocks the gate loop.
func (h *Hub) Render(f display.Frame) {
	h.frameMu.Lock()
	h.frame = f
	h.dirty = true
	h.hasLast = true
	h.frameMu.Unlock()
}

// PublishPhase broadcasts a gate phase change.
func (h *Hub) PublishPhase(pc gate.PhaseChange) {
	msg, err := formatPhase(pc)
	if err != nil {
		h.logger.Warn("ws phase encode failed", "error", err)
		return
	}
	h.broadcastBytes(msg)
}

// broadcastBytes enqueues a pre-serialized frame. If the hub queue is full the message is dropped.
func (h *Hub) broadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run flushes frames and broadcasts until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ticker.C:
			if msg, ok := h.pendingFrame(); ok {
				h.fanOut(msg)
			}
		}
	}
}

// pendingFrame encodes the latest frame if it changed since the last flush.
func (h *Hub) pendingFrame() ([]byte, bool) {
	h.frameMu.Lock()
	if !h.dirty {
		h.frameMu.Unlock()
		return nil, false
	}
	f := h.frame
	h.dirty = false
	h.frameMu.Unlock()

	msg, err := formatFrame(f, time.Now())
	if err != nil {
		h.logger.Warn("ws frame encode failed", "error", err)
		return nil, false
	}
	return msg, true
}

// lastFrame encodes the most recent frame regardless of whether it was flushed.
func (h *Hub) lastFrame() ([]byte, bool) {
	h.frameMu.Lock()
	f, ok := h.frame, h.hasLast
	h.frameMu.Unlock()
	if !ok {
		return nil, false
	}
	msg, err := formatFrame(f, time.Now())
	return msg, err == nil
}

func (h *Hub) fanOut(msg []byte) {
	// Collect slow clients first, then remove them after we unlock.
	var slow []*client

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.remove(c, "slow_client")
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "clients", n)
}

func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		close(c.send)
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request, registers the client and sends the latest frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuf),
		remoteAddr: r.RemoteAddr,
	}

	// Queue the initial frame before registering so it is the first message the
	// client sees; the send buffer is empty at this point.
	if msg, ok := h.lastFrame(); ok {
		c.send <- msg
	}
	h.add(c)

	// The pumps outlive the request; their lifetime is managed by the hub and
	// by read/write errors.
	go c.writePump()
	go c.readPump()
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
}

// closeStatus extracts a websocket close code and text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes queued messages and keepalive pings. It exits on write
// error or when send is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("write", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("ping", err)
				return
			}
		}
	}
}

// readPump discards incoming messages to detect disconnects and handle
// control frames, then unregisters the client.
func (c *client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logExit("read", err)
			c.hub.remove(c, "read_error")
			return
		}
	}
}

func (c *client) logExit(op string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.hub.logger.Debug("ws pump exiting (close)", "op", op, "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.hub.logger.Debug("ws pump exiting", "op", op, "remote_addr", c.remoteAddr, "error", err)
}
