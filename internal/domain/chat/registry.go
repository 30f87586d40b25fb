package chat

// Sink is a fire-and-forget outbound channel to one live connection.
// Deliver must never block; implementations drop when the receiver cannot
// keep up.
type Sink interface {
	Deliver(ev Event)
}

// Registry is the process-wide table of per-room presence and replay
// buffers. All state is ephemeral and rebuilt from nothing on restart.
// Operations never fail the connection; internal broadcast errors are
// swallowed and logged.
type Registry interface {
	// Connect registers a live connection's outbound sink.
	Connect(connID string, sink Sink)

	// Join adds the connection to the room's member set, delivers the
	// buffered history to it alone, then broadcasts the member count to
	// the room.
	Join(connID, roomID string)

	// Leave removes membership and broadcasts the member count. No-op if
	// the connection is not a member.
	Leave(connID, roomID string)

	// Send appends a message to the room's bounded history and broadcasts
	// it to every current member, sender included. Requests with a missing
	// room id or body are dropped silently.
	Send(connID string, req SendRequest)

	// Disconnect removes the connection from every joined room,
	// broadcasting updated member counts.
	Disconnect(connID string)

	// Purge drops the room's history and member set. Members are treated
	// as removed; no event is emitted (room_deleted travels on the global
	// bus).
	Purge(roomID string)
}
