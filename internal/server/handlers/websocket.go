// internal/server/handlers/websocket.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/chat"
	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
	"github.com/shivraj-yadav/ChugLi/internal/event"
	"github.com/shivraj-yadav/ChugLi/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the CORS layer
		return true
	},
}

// SessionGateway upgrades HTTP connections to websockets and runs one
// dispatch loop per connection, translating inbound events into registry
// operations. Events from one connection are handled in order; no ordering
// holds across connections.
type SessionGateway struct {
	registry   chat.Registry
	finder     room.Finder
	bus        event.Bus
	subject    string
	sendBuffer int
	logger     zerolog.Logger
}

// NewSessionGateway creates a new realtime session gateway.
func NewSessionGateway(
	registry chat.Registry,
	finder room.Finder,
	bus event.Bus,
	subject string,
	sendBuffer int,
	logger zerolog.Logger,
) *SessionGateway {
	return &SessionGateway{
		registry:   registry,
		finder:     finder,
		bus:        bus,
		subject:    subject,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Handle upgrades the connection, registers it with the registry,
// subscribes it to the global room events and runs its dispatch loop
// until the peer goes away.
func (g *SessionGateway) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, g.sendBuffer),
		done:   make(chan struct{}),
		logger: g.logger,
	}

	// Forward global room_created / room_deleted announcements as-is
	sub, err := g.bus.Subscribe(g.subject, client.enqueue)
	if err != nil {
		g.logger.Error().Err(err).Msg("room events subscription failed")
		conn.Close()
		return
	}

	metrics.WebsocketConnections.Inc()
	g.registry.Connect(client.id, client)

	go client.writePump()
	g.readPump(client, sub)
}

// readPump reads inbound events until the connection drops, then tears the
// session down exactly once.
func (g *SessionGateway) readPump(c *wsClient, sub event.Subscription) {
	defer func() {
		g.registry.Disconnect(c.id)
		sub.Unsubscribe()
		c.close()
		metrics.WebsocketConnections.Dec()
		g.logger.Debug().Str("conn", c.id).Msg("websocket connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Debug().Err(err).Str("conn", c.id).Msg("websocket read error")
			}
			return
		}

		g.dispatch(c, message)
	}
}

// inboundEvent is the envelope for everything a client sends.
type inboundEvent struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Message   string `json:"message"`
	Handle    string `json:"handle"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// dispatch routes one inbound event. Malformed payloads are dropped
// silently; the channel stays resilient to misbehaving clients.
func (g *SessionGateway) dispatch(c *wsClient, message []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		g.logger.Debug().Err(err).Str("conn", c.id).Msg("unparseable event dropped")
		return
	}

	switch ev.Type {
	case "join_room":
		g.join(c, ev.RoomID)

	case "leave_room":
		if ev.RoomID != "" {
			g.registry.Leave(c.id, ev.RoomID)
		}

	case "send_message":
		g.registry.Send(c.id, chat.SendRequest{
			RoomID:          ev.RoomID,
			Body:            ev.Message,
			Handle:          ev.Handle,
			ClientID:        ev.ID,
			ClientTimestamp: ev.Timestamp,
		})

	default:
		g.logger.Debug().Str("type", ev.Type).Str("conn", c.id).Msg("unknown event type dropped")
	}
}

// join checks the room still exists before joining, so registry entries
// for rooms the store has already expired get purged lazily instead of
// lingering.
func (g *SessionGateway) join(c *wsClient, roomID string) {
	if roomID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := g.finder.Get(ctx, roomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			g.registry.Purge(roomID)
			g.logger.Debug().Str("room", roomID).Msg("join for absent room dropped, stale entry purged")
			return
		}
		// Store unavailable: joining is best-effort, proceed anyway
		g.logger.Warn().Err(err).Str("room", roomID).Msg("room lookup failed during join")
	}

	g.registry.Join(c.id, roomID)
}

// wsClient is one live websocket connection. It implements chat.Sink;
// delivery never blocks and drops when the outbound buffer is full.
type wsClient struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	logger    zerolog.Logger
	closeOnce sync.Once
}

// Deliver marshals the event and queues it for the write pump.
func (c *wsClient) Deliver(ev chat.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Str("type", ev.Type).Msg("error marshaling outbound event")
		return
	}
	c.enqueue(data)
}

func (c *wsClient) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	default:
		metrics.EventsDropped.Inc()
		c.logger.Warn().Str("conn", c.id).Msg("outbound buffer full, event dropped")
	}
}

// writePump pumps queued events to the peer and keeps the connection
// alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
