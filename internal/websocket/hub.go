package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voiceover/domain/entities"
	"github.com/satriahrh/voiceover/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Outbound messages buffered per client before it is dropped.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of progress listeners and broadcasts run snapshots to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Run snapshots to fan out.
	broadcast chan *entities.Run

	// Last snapshot fanned out, handed to listeners that register after it
	latest *entities.Run

	// Mutex for thread-safe access to clients map and latest
	mu sync.RWMutex

	done    chan struct{}
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *entities.Run, sendBufferSize),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			h.removeLocked(client)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			snapshot := client.initial
			if h.latest != nil && h.latest.ID == client.runID && fresher(h.latest, snapshot) {
				snapshot = h.latest
			}
			client.initial = nil
			h.queueLocked(client, CreateRunMessage(MessageTypeRunSnapshot, snapshot))
			h.mu.Unlock()
			h.metrics.ListenerConnected()
			h.logger.Info("Client registered", zap.String("runID", client.runID))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("runID", client.runID))

		case run := <-h.broadcast:
			h.fanOut(run)
		}
	}
}

// PublishRun queues a snapshot for every listener of the run
func (h *Hub) PublishRun(run *entities.Run) {
	select {
	case h.broadcast <- run:
	case <-h.done:
	default:
		h.logger.Warn("Progress broadcast queue full, dropping snapshot",
			zap.String("runID", run.ID))
	}
}

// ClientCount returns the number of listeners of a run
func (h *Hub) ClientCount(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for client := range h.clients {
		if client.runID == runID {
			count++
		}
	}
	return count
}

func (h *Hub) fanOut(run *entities.Run) {
	payload, err := json.Marshal(CreateRunMessage(MessageTypeRunProgress, run))
	if err != nil {
		h.logger.Error("Failed to encode run snapshot", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = run
	for client := range h.clients {
		if client.runID == run.ID {
			h.sendLocked(client, payload)
		}
	}
}

// queueLocked encodes v for a registered client. Caller holds h.mu.
func (h *Hub) queueLocked(client *Client, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.Error(err))
		return
	}
	h.sendLocked(client, payload)
}

func (h *Hub) sendLocked(client *Client, payload []byte) {
	select {
	case client.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		h.logger.Warn("Client send buffer full, disconnecting",
			zap.String("runID", client.runID))
		h.removeLocked(client)
	}
}

// fresher reports whether a has progressed at least as far as b
func fresher(a, b *entities.Run) bool {
	if b == nil {
		return true
	}
	settledA, _, _ := a.Progress()
	settledB, _, _ := b.Progress()
	if settledA != settledB {
		return settledA > settledB
	}
	return !a.IsRunning() || b.IsRunning()
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closed = true
	close(client.send)
	h.metrics.ListenerDisconnected()
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Run this client listens to
	runID string

	// Snapshot looked up by the handler, sent on registration unless the hub has a fresher one
	initial *entities.Run

	// Set once send is closed. Guarded by hub.mu.
	closed bool

	validator *MessageValidator
	logger    *zap.Logger
}

// HandleWebSocket upgrades the request and streams progress of run to the peer.
// The first message is run, or the latest published snapshot of the same run
// when that is further along.
func HandleWebSocket(hub *Hub, c echo.Context, run *entities.Run, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, sendBufferSize),
		runID:     run.ID,
		initial:   run,
		validator: NewMessageValidator(),
		logger:    logger,
	}

	select {
	case client.hub.register <- client:
	case <-hub.done:
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		default:
			c.logger.Warn("Received unsupported message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage answers application-level pings from the listener
func (c *Client) processMessage(message []byte) {
	msg, err := c.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Invalid message from client",
			zap.String("runID", c.runID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("invalid_message", "Invalid message", err.Error()))
		return
	}

	if ping, ok := msg.(*PingMessage); ok {
		c.sendJSON(CreatePongMessage(ping.Data))
	}
}

// sendJSON queues v without blocking; the hub owns closing c.send
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.Error(err))
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Client send buffer full, dropping message", zap.String("runID", c.runID))
	}
}
