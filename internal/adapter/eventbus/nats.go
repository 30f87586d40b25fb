// internal/adapter/eventbus/nats.go

package eventbus

import (
	"github.com/nats-io/nats.go"

	"github.com/shivraj-yadav/ChugLi/internal/event"
)

// NATSBus adapts a NATS connection to the event.Bus contract.
type NATSBus struct {
	conn *nats.Conn
}

// New wraps an established NATS connection.
func New(conn *nats.Conn) *NATSBus {
	return &NATSBus{conn: conn}
}

// Publish sends data on subject. Delivery is best-effort fan-out.
func (b *NATSBus) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

// Subscribe registers h for subject.
func (b *NATSBus) Subscribe(subject string, h event.Handler) (event.Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		h(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
