package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"codeduel/pkg/utils/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 256 << 10
	sendBuffer     = 64
)

// Conn is one websocket client. Writes go through the send channel so a
// single goroutine owns the socket. The mutex guards send against the
// close-while-enqueueing race: a broadcast must never hit a closed channel.
type Conn struct {
	ID  string
	hub *Hub
	ws  *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Hub tracks connections and room membership and fans events out to them.
// It satisfies the duel service's Notifier interface.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	rooms map[string]map[string]*Conn
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Conn),
		rooms: make(map[string]map[string]*Conn),
	}
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
}

// remove drops a connection and its room memberships. Returns whether the
// connection was still registered, so disconnect handling runs only once.
func (h *Hub) remove(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID]; !ok {
		return false
	}
	delete(h.conns, c.ID)
	for roomID, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	return true
}

// Subscribe adds a connection to a room's broadcast set.
func (h *Hub) Subscribe(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Conn)
	}
	h.rooms[roomID][connID] = c
}

// Unsubscribe removes a connection from a room's broadcast set.
func (h *Hub) Unsubscribe(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[roomID]
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// ToRoom sends an event to every connection subscribed to a room.
func (h *Hub) ToRoom(roomID, event string, payload any) {
	data, err := json.Marshal(outbound{Type: event, Payload: payload})
	if err != nil {
		logger.Error(context.Background(), "event encode failed",
			zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	members := make([]*Conn, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(data)
	}
}

// ToPlayer sends an event to a single connection.
func (h *Hub) ToPlayer(playerID, event string, payload any) {
	data, err := json.Marshal(outbound{Type: event, Payload: payload})
	if err != nil {
		logger.Error(context.Background(), "event encode failed",
			zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	c := h.conns[playerID]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(data)
	}
}

// enqueue never blocks; a connection that cannot drain its buffer is closed
// rather than allowed to stall broadcasts for the whole room. Once closed,
// further events for this connection are dropped silently. The connection
// may still be registered in the hub at that point; deregistration happens
// when its read pump unwinds.
func (c *Conn) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn(context.Background(), "client send buffer full, dropping connection",
			zap.String("connection_id", c.ID))
		c.closed = true
		close(c.send)
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// reply sends a direct response to this connection, echoing the request seq.
func (c *Conn) reply(seq int64, event string, payload any) {
	data, err := json.Marshal(outbound{Type: event, Seq: seq, Payload: payload})
	if err != nil {
		logger.Error(context.Background(), "reply encode failed",
			zap.String("event", event), zap.Error(err))
		return
	}
	c.enqueue(data)
}

// writePump owns all writes to the socket, including keepalive pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
