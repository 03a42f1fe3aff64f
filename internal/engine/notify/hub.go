package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is the wire shape pushed to connected clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub tracks connected sessions grouped into rooms named by user id.
// Broadcast targets one room; a user with no open sessions simply
// receives nothing.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
	}
}

// Join registers a connection under the user's room and starts its pumps.
// Blocks until the connection closes.
func (h *Hub) Join(userID string, conn *websocket.Conn) {
	c := &client{
		conn: conn,
		send: make(chan Message, 16),
	}

	h.mu.Lock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[userID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("user_id", userID).Msg("websocket session joined")

	go c.writePump()
	c.readPump()

	h.mu.Lock()
	delete(h.rooms[userID], c)
	if len(h.rooms[userID]) == 0 {
		delete(h.rooms, userID)
	}
	h.mu.Unlock()

	close(c.send)
	log.Debug().Str("user_id", userID).Msg("websocket session left")
}

// Broadcast sends an event to every session in the user's room. Sessions
// with a full send buffer are skipped; delivery is best-effort.
func (h *Hub) Broadcast(userID, event string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[userID] {
		select {
		case c.send <- Message{Event: event, Data: data}:
		default:
		}
	}
}

func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(4096)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
