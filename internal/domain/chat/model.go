package chat

// AnonymousHandle is the display handle used when a sender supplies none.
const AnonymousHandle = "@Anonymous"

// Message is a single chat message in a room's replay buffer. Immutable
// once constructed; insertion order is display order.
type Message struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	Body      string `json:"message"`
	Handle    string `json:"handle"`
	Timestamp string `json:"timestamp"`
}

// SendRequest carries one inbound send_message payload. ClientID and
// ClientTimestamp are optional; the registry synthesizes values when the
// client omits them.
type SendRequest struct {
	RoomID          string
	Body            string
	Handle          string
	ClientID        string
	ClientTimestamp string
}
