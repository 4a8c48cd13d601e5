package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn is the part of a websocket connection the hub writes to
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected socket, bound to the company of its user
type Client struct {
	Conn      Conn
	CompanyID uuid.UUID
	UserID    uuid.UUID
}

// Message is delivered to every client of CompanyID
type Message struct {
	CompanyID uuid.UUID
	Payload   []byte
}

type Hub struct {
	clients    map[Conn]*Client
	Register   chan *Client
	Unregister chan Conn
	Broadcast  chan Message
	done       chan struct{}
	mutex      sync.Mutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[Conn]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan Conn),
		Broadcast:  make(chan Message, 64),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws").Logger(),
	}
}

// Run serves the hub until ctx ends. It must be called once; afterwards
// sends through Join, Leave and Publish return without blocking.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return

		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client.Conn] = client
			h.mutex.Unlock()
			h.log.Debug().Str("company_id", client.CompanyID.String()).Msg("client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.Broadcast:
			h.mutex.Lock()
			for conn, client := range h.clients {
				if client.CompanyID != msg.CompanyID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish sends payload to the company's clients without blocking the caller.
// A nil hub drops the event.
func (h *Hub) Publish(companyID uuid.UUID, payload map[string]interface{}) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal ws payload")
		return
	}
	select {
	case <-h.done:
		return
	default:
	}
	go func() {
		select {
		case h.Broadcast <- Message{CompanyID: companyID, Payload: msg}:
		case <-h.done:
		}
	}()
}

// Join registers c. It reports false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters conn, or does nothing once the hub has stopped
func (h *Hub) Leave(conn Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.done:
	}
}

// ClientCount returns how many sockets company has open
func (h *Hub) ClientCount(companyID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, c := range h.clients {
		if c.CompanyID == companyID {
			n++
		}
	}
	return n
}
