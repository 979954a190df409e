package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	"github.com/abrezinsky/everyonevotes/internal/logger"
	"github.com/abrezinsky/everyonevotes/internal/metrics"
	"github.com/abrezinsky/everyonevotes/internal/models"
)

// Message types pushed to dashboards
const (
	TypeBallotCast = "ballot_cast"
	TypeStatistics = "statistics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are authenticated by token, not origin
	},
}

// StatisticsSource supplies scoped dashboard snapshots
type StatisticsSource interface {
	GetScopedStatistics(ctx context.Context, scope string) (*models.Statistics, error)
}

// BallotCastPayload is what dashboards learn about a new ballot. It never
// identifies the voter or the choice.
type BallotCastPayload struct {
	Constituency string    `json:"constituency"`
	Abstain      bool      `json:"abstain"`
	CastAt       time.Time `json:"cast_at"`
}

// outbound is a message limited to clients whose scope covers constituency.
// An empty constituency reaches every client.
type outbound struct {
	constituency string
	msg          models.WSMessage
}

// Hub maintains the set of connected officer dashboards and pushes updates to them
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	stats      StatisticsSource
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan models.WSMessage
	scope string // officer constituency or models.AllConstituencies
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, stats StatisticsSource) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stats:      stats,
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

func (c *Client) covers(constituency string) bool {
	return c.scope == models.AllConstituencies || c.scope == constituency
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.DashboardConnections.Set(float64(total))
			h.log.Debug("Dashboard connected", "scope", client.scope, "total_clients", total)

			// Send a statistics snapshot to the new client
			go h.sendSnapshot(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.DashboardConnections.Set(float64(total))
			h.log.Debug("Dashboard disconnected", "total_clients", total)

		case out := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if !client.covers(out.constituency) {
					continue
				}
				select {
				case client.send <- out.msg:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

func (h *Hub) snapshot(ctx context.Context, scope string) (models.WSMessage, bool) {
	if h.stats == nil {
		return models.WSMessage{}, false
	}
	stats, err := h.stats.GetScopedStatistics(ctx, scope)
	if err != nil {
		h.log.Warn("Failed to load dashboard statistics", "scope", scope, "error", err)
		return models.WSMessage{}, false
	}
	return models.WSMessage{Type: TypeStatistics, Payload: stats}, true
}

func (h *Hub) sendSnapshot(client *Client) {
	msg, ok := h.snapshot(context.Background(), client.scope)
	if !ok {
		return
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}

// enqueue hands a message to the run loop without blocking the caller.
// When the queue is full the message is dropped.
func (h *Hub) enqueue(out outbound) {
	select {
	case h.broadcast <- out:
	default:
		h.log.Warn("Dashboard queue full, dropping message", "type", out.msg.Type)
	}
}

// BroadcastBallotCast implements services.Broadcaster. Only dashboards whose
// scope covers the ballot's constituency are told.
func (h *Hub) BroadcastBallotCast(ballot models.Ballot) {
	h.enqueue(outbound{
		constituency: ballot.Constituency,
		msg: models.WSMessage{
			Type: TypeBallotCast,
			Payload: BallotCastPayload{
				Constituency: ballot.Constituency,
				Abstain:      ballot.Abstain,
				CastAt:       ballot.CastAt,
			},
		},
	})
}

// clientCount returns the number of connected dashboards
func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// Dashboards may ask for a fresh snapshot
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil && msg.Type == TypeStatistics {
			go c.hub.sendSnapshot(c)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an officer's request to a dashboard connection. It must
// sit behind auth.RequireOfficer.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	officer, ok := auth.OfficerFromContext(r.Context())
	if !ok {
		http.Error(w, "officer token required", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan models.WSMessage, 256),
		scope: officer.Constituency,
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}

// StartStatisticsRefresh pushes a scoped statistics snapshot to every
// dashboard each interval until ctx is cancelled
func (h *Hub) StartStatisticsRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Dashboard refresh stopped")
			return
		case <-ticker.C:
			h.refreshAll(ctx)
		}
	}
}

// refreshAll loads one snapshot per distinct scope and queues it
func (h *Hub) refreshAll(ctx context.Context) {
	h.mutex.RLock()
	scopes := make(map[string]bool)
	for client := range h.clients {
		scopes[client.scope] = true
	}
	h.mutex.RUnlock()

	for scope := range scopes {
		msg, ok := h.snapshot(ctx, scope)
		if !ok {
			continue
		}
		h.enqueueScoped(scope, msg)
	}
}

// enqueueScoped queues msg for clients whose scope is exactly scope
func (h *Hub) enqueueScoped(scope string, msg models.WSMessage) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients {
		if client.scope != scope {
			continue
		}
		select {
		case client.send <- msg:
		default:
		}
	}
}
