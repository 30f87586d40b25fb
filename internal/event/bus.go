// internal/event/bus.go

package event

// Handler consumes one published payload.
type Handler func(data []byte)

// Subscription is a live interest in a subject.
type Subscription interface {
	Unsubscribe() error
}

// Bus fans published payloads out to every subscriber of a subject. The
// process-wide room events (room_created, room_deleted) travel on it so
// that clients browsing discovery stay current without re-querying.
type Bus interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, h Handler) (Subscription, error)
}
