package room

import "context"

// Lifecycle creates and deletes rooms, keeping the persistent store, the
// in-memory presence registry and the outbound event stream consistent.
type Lifecycle interface {
	// Create validates input, persists a new room and announces it to all
	// subscribers. Returns a ValidationError for a missing title or
	// non-finite coordinates.
	Create(ctx context.Context, creatorID, title string, tags []string, lat, lng float64) (*Room, error)

	// Delete removes the room. Fails with ErrNotFound for an unknown id and
	// ErrForbidden when the principal is not the creator; the ownership
	// check happens strictly before any mutation.
	Delete(ctx context.Context, principalID, roomID string) error
}

// Service combines the write and read sides of room management.
type Service interface {
	Lifecycle
	Finder
}

// Finder is the read-only discovery side.
type Finder interface {
	// Nearby returns live rooms within the discovery radius of the given
	// point, ordered by increasing distance.
	Nearby(ctx context.Context, lat, lng float64) ([]Nearby, error)

	// Get returns a room by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Room, error)
}
