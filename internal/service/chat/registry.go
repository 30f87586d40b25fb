// internal/service/chat/registry.go

package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/chat"
	"github.com/shivraj-yadav/ChugLi/internal/metrics"
)

// Registry is the in-memory table mapping room id to its member set and
// bounded replay buffer, plus connection id to its session. Created once at
// process start; all state is discarded on restart.
//
// Lock order is registry before channel. Neither lock is ever held while
// delivering to a sink, so a slow connection cannot stall a room.
type Registry struct {
	mu           sync.RWMutex
	channels     map[string]*channel
	sessions     map[string]*session
	historyLimit int
	logger       zerolog.Logger
}

// channel is the ephemeral state for one room. Absent and empty are
// equivalent; channels are created lazily on first join or first message.
type channel struct {
	mu      sync.Mutex
	history []chat.Message
	members map[string]chat.Sink
}

// session tracks which rooms a live connection has joined, to drive
// cleanup on disconnect.
type session struct {
	sink   chat.Sink
	joined map[string]struct{}
}

// NewRegistry creates an empty registry with the given replay-buffer bound.
func NewRegistry(historyLimit int, logger zerolog.Logger) *Registry {
	return &Registry{
		channels:     make(map[string]*channel),
		sessions:     make(map[string]*session),
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// channelLocked returns the channel for roomID, creating it if absent.
// Callers must hold r.mu.
func (r *Registry) channelLocked(roomID string) *channel {
	ch, ok := r.channels[roomID]
	if !ok {
		ch = &channel{members: make(map[string]chat.Sink)}
		r.channels[roomID] = ch
	}
	return ch
}

// Connect registers a live connection's outbound sink.
func (r *Registry) Connect(connID string, sink chat.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connID] = &session{
		sink:   sink,
		joined: make(map[string]struct{}),
	}
}

// Join adds the connection to the room, replays the buffered history to it
// alone, then broadcasts the updated member count to the room.
func (r *Registry) Join(connID, roomID string) {
	if roomID == "" {
		return
	}

	r.mu.Lock()
	sess, ok := r.sessions[connID]
	if !ok {
		r.mu.Unlock()
		r.logger.Debug().Str("conn", connID).Msg("join from unknown connection dropped")
		return
	}
	ch := r.channelLocked(roomID)
	sess.joined[roomID] = struct{}{}
	r.mu.Unlock()

	ch.mu.Lock()
	ch.members[connID] = sess.sink
	history := make([]chat.Message, len(ch.history))
	copy(history, ch.history)
	sinks, count := ch.snapshotLocked()
	ch.mu.Unlock()

	sess.sink.Deliver(chat.Event{
		Type:     chat.EventChatHistory,
		RoomID:   roomID,
		Messages: history,
	})

	broadcast(sinks, chat.Event{
		Type:   chat.EventRoomUsers,
		RoomID: roomID,
		Count:  count,
	})
}

// Leave removes the connection from the room and broadcasts the updated
// member count. No-op if the connection is not a member.
func (r *Registry) Leave(connID, roomID string) {
	r.mu.Lock()
	if sess, ok := r.sessions[connID]; ok {
		delete(sess.joined, roomID)
	}
	ch := r.channels[roomID]
	r.mu.Unlock()

	if ch == nil {
		return
	}

	ch.mu.Lock()
	_, wasMember := ch.members[connID]
	delete(ch.members, connID)
	sinks, count := ch.snapshotLocked()
	ch.mu.Unlock()

	if !wasMember {
		return
	}

	broadcast(sinks, chat.Event{
		Type:   chat.EventRoomUsers,
		RoomID: roomID,
		Count:  count,
	})
}

// Send appends a message to the room's history, evicting the oldest entry
// past the bound, and broadcasts it to every current member including the
// sender. Malformed requests are dropped silently; chat is best-effort.
func (r *Registry) Send(connID string, req chat.SendRequest) {
	if req.RoomID == "" || req.Body == "" {
		r.logger.Debug().Str("conn", connID).Msg("malformed send dropped")
		return
	}

	msg := chat.Message{
		ID:        req.ClientID,
		RoomID:    req.RoomID,
		Body:      req.Body,
		Handle:    req.Handle,
		Timestamp: req.ClientTimestamp,
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%d-%s", time.Now().UnixMilli(), connID)
	}
	if msg.Handle == "" {
		msg.Handle = chat.AnonymousHandle
	}
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	r.mu.Lock()
	if _, ok := r.sessions[connID]; !ok {
		r.mu.Unlock()
		return
	}
	ch := r.channelLocked(req.RoomID)
	r.mu.Unlock()

	ch.mu.Lock()
	ch.history = append(ch.history, msg)
	if n := len(ch.history) - r.historyLimit; n > 0 {
		// FIFO eviction; copy down so the backing array stays bounded
		copy(ch.history, ch.history[n:])
		ch.history = ch.history[:r.historyLimit]
	}
	sinks, _ := ch.snapshotLocked()
	ch.mu.Unlock()

	metrics.MessagesBroadcast.Inc()

	broadcast(sinks, chat.Event{
		Type:    chat.EventReceiveMessage,
		Message: &msg,
	})
}

// Disconnect removes the connection from every room it joined,
// broadcasting updated member counts to the remaining members.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	sess := r.sessions[connID]
	delete(r.sessions, connID)

	var affected []*channel
	var roomIDs []string
	if sess != nil {
		for roomID := range sess.joined {
			if ch := r.channels[roomID]; ch != nil {
				affected = append(affected, ch)
				roomIDs = append(roomIDs, roomID)
			}
		}
	}
	r.mu.Unlock()

	for i, ch := range affected {
		ch.mu.Lock()
		delete(ch.members, connID)
		sinks, count := ch.snapshotLocked()
		ch.mu.Unlock()

		broadcast(sinks, chat.Event{
			Type:   chat.EventRoomUsers,
			RoomID: roomIDs[i],
			Count:  count,
		})
	}
}

// Purge drops the room's history and member set and detaches it from every
// session. Silent: room_deleted reaches clients on the global bus, exactly
// once.
func (r *Registry) Purge(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.channels, roomID)
	for _, sess := range r.sessions {
		delete(sess.joined, roomID)
	}
}

// Count returns the current member count for a room.
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	ch := r.channels[roomID]
	r.mu.RUnlock()

	if ch == nil {
		return 0
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.members)
}

// snapshotLocked returns the current member sinks and count. Callers must
// hold ch.mu.
func (ch *channel) snapshotLocked() ([]chat.Sink, int) {
	sinks := make([]chat.Sink, 0, len(ch.members))
	for _, s := range ch.members {
		sinks = append(sinks, s)
	}
	return sinks, len(sinks)
}

// broadcast delivers ev to each sink. Delivery is fire-and-forget; sinks
// never block.
func broadcast(sinks []chat.Sink, ev chat.Event) {
	for _, s := range sinks {
		s.Deliver(ev)
	}
}
