package chat

import "github.com/shivraj-yadav/ChugLi/internal/domain/room"

// Outbound event types. room_created and room_deleted are global;
// chat_history is point-to-point to the joining connection; the rest are
// scoped to one room's members.
const (
	EventRoomCreated    = "room_created"
	EventRoomDeleted    = "room_deleted"
	EventChatHistory    = "chat_history"
	EventReceiveMessage = "receive_message"
	EventRoomUsers      = "room_users"
)

// Event is the outbound wire envelope. Only the fields relevant to the
// event type are populated. Messages and Count are never omitted: a
// chat_history for an empty room carries an empty array, not a missing
// field, so clients can range over it unconditionally.
type Event struct {
	Type     string     `json:"type"`
	Room     *room.Room `json:"room,omitempty"`
	RoomID   string     `json:"roomId,omitempty"`
	Messages []Message  `json:"messages"`
	Message  *Message   `json:"message,omitempty"`
	Count    int        `json:"count"`
}
