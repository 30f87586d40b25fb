// internal/service/room/lifecycle.go

package room

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/chat"
	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
	"github.com/shivraj-yadav/ChugLi/internal/event"
	"github.com/shivraj-yadav/ChugLi/internal/metrics"
)

// Store defines the persistence contract the lifecycle service consumes.
// The store enforces the room lifetime autonomously: FindByID and FindNear
// never return expired rooms, and DeleteExpired physically removes them.
type Store interface {
	Save(ctx context.Context, r room.Room) error
	FindByID(ctx context.Context, id string) (*room.Room, error)
	FindNear(ctx context.Context, at room.Point, radiusMeters float64) ([]room.Nearby, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) ([]string, error)
}

// Presence is the slice of the in-memory registry the lifecycle service
// drives: purging a deleted room's ephemeral state.
type Presence interface {
	Purge(roomID string)
}

// Config contains configuration for the lifecycle service.
type Config struct {
	EventsSubject      string
	SweepInterval      time.Duration
	NearbyRadiusMeters float64
	MaxTitleLength     int
}

// Service orchestrates room create/delete against the store, keeps the
// presence registry in sync, and announces changes on the event bus. It
// also runs the periodic reconciliation sweep for store-level expiry.
type Service struct {
	store    Store
	registry Presence
	bus      event.Bus
	resolver identity.Resolver
	cfg      Config
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates the lifecycle service and starts the expiry sweep.
func NewService(
	store Store,
	registry Presence,
	bus event.Bus,
	resolver identity.Resolver,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		store:    store,
		registry: registry,
		bus:      bus,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.wg.Add(1)
	go s.sweepLoop()

	return s
}

// Stop halts the expiry sweep and waits for it to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create validates input, persists the room and announces it globally so
// clients browsing discovery update without re-querying. The presence
// registry is untouched: channels are created lazily on first join.
func (s *Service) Create(ctx context.Context, creatorID, title string, tags []string, lat, lng float64) (*room.Room, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, room.ValidationError{Field: "title", Reason: "required"}
	}
	if s.cfg.MaxTitleLength > 0 && len(title) > s.cfg.MaxTitleLength {
		return nil, room.ValidationError{Field: "title", Reason: "too long"}
	}
	if err := validateCoords(lat, lng); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []string{}
	}

	r := room.Room{
		ID:        uuid.New().String(),
		Title:     title,
		CreatorID: creatorID,
		Tags:      tags,
		Location:  room.Point{Lat: lat, Lng: lng},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("error saving room: %w", err)
	}

	metrics.RoomsCreated.Inc()

	s.publish(chat.Event{Type: chat.EventRoomCreated, Room: &r})

	return &r, nil
}

// Delete removes a room. Ownership is checked strictly before any
// mutation, and the store delete happens before the registry purge so a
// store failure loses no ephemeral state.
func (s *Service) Delete(ctx context.Context, principalID, roomID string) error {
	r, err := s.store.FindByID(ctx, roomID)
	if err != nil {
		return err
	}

	if r.CreatorID != principalID {
		return room.ErrForbidden
	}

	if err := s.store.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("error deleting room: %w", err)
	}

	s.registry.Purge(roomID)
	metrics.RoomsDeleted.WithLabelValues("creator").Inc()

	s.publish(chat.Event{Type: chat.EventRoomDeleted, RoomID: roomID})

	return nil
}

// Nearby returns live rooms within the discovery radius, closest first,
// with creators resolved to their anonymous handles.
func (s *Service) Nearby(ctx context.Context, lat, lng float64) ([]room.Nearby, error) {
	if err := validateCoords(lat, lng); err != nil {
		return nil, err
	}

	results, err := s.store.FindNear(ctx, room.Point{Lat: lat, Lng: lng}, s.cfg.NearbyRadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("error finding nearby rooms: %w", err)
	}

	for i := range results {
		results[i].CreatorHandle = s.resolver.Resolve(ctx, results[i].CreatorID)
	}

	return results, nil
}

// Get returns a live room by id.
func (s *Service) Get(ctx context.Context, id string) (*room.Room, error) {
	return s.store.FindByID(ctx, id)
}

// sweepLoop periodically removes expired rooms and reconciles ephemeral
// state, so TTL expiry behaves like a deletion for connected clients.
func (s *Service) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(s.ctx)
		}
	}
}

// sweepExpired deletes expired rooms from the store, then purges their
// registry entries and announces room_deleted for each. Store first,
// registry second, same ordering as an explicit delete.
func (s *Service) sweepExpired(ctx context.Context) {
	ids, err := s.store.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep failed")
		return
	}

	for _, id := range ids {
		s.registry.Purge(id)
		metrics.RoomsDeleted.WithLabelValues("expired").Inc()
		s.publish(chat.Event{Type: chat.EventRoomDeleted, RoomID: id})
	}

	if len(ids) > 0 {
		s.logger.Info().Int("count", len(ids)).Msg("expired rooms swept")
	}
}

// publish announces an event on the global subject. Publish failures are
// logged and swallowed; announcements are best-effort.
func (s *Service) publish(ev chat.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Str("type", ev.Type).Msg("error marshaling event")
		return
	}

	if err := s.bus.Publish(s.cfg.EventsSubject, data); err != nil {
		s.logger.Error().Err(err).Str("type", ev.Type).Msg("error publishing event")
	}
}

func validateCoords(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return room.ValidationError{Field: "lat", Reason: "must be a finite latitude"}
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return room.ValidationError{Field: "lng", Reason: "must be a finite longitude"}
	}
	return nil
}
