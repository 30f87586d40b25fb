package room

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/domain/chat"
	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
	"github.com/shivraj-yadav/ChugLi/internal/event"
)

// fakeStore keeps rooms in a map and approximates FindNear with a flat-earth
// distance, which is accurate enough at discovery radii.
type fakeStore struct {
	mu         sync.Mutex
	rooms      map[string]room.Room
	expired    []string
	failDelete bool
	failSave   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string]room.Room)}
}

func (s *fakeStore) Save(ctx context.Context, r room.Room) error {
	if s.failSave {
		return errors.New("save failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id string) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return &r, nil
}

func (s *fakeStore) FindNear(ctx context.Context, at room.Point, radiusMeters float64) ([]room.Nearby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []room.Nearby
	for _, r := range s.rooms {
		d := flatDistanceMeters(at, r.Location)
		if d <= radiusMeters {
			out = append(out, room.Nearby{Room: r, DistanceMeters: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if s.failDelete {
		return errors.New("delete failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *fakeStore) DeleteExpired(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.expired
	s.expired = nil
	for _, id := range ids {
		delete(s.rooms, id)
	}
	return ids, nil
}

func flatDistanceMeters(a, b room.Point) float64 {
	const metersPerDegree = 111320.0
	dLat := (a.Lat - b.Lat) * metersPerDegree
	dLng := (a.Lng - b.Lng) * metersPerDegree * math.Cos(a.Lat*math.Pi/180)
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

type fakePresence struct {
	mu     sync.Mutex
	purged []string
}

func (p *fakePresence) Purge(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, roomID)
}

func (p *fakePresence) purgedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.purged...)
}

type staticResolver struct {
	handles map[string]string
}

func (r staticResolver) Resolve(ctx context.Context, userID string) string {
	if h, ok := r.handles[userID]; ok {
		return h
	}
	return chat.AnonymousHandle
}

// busRecorder collects decoded events published on the global subject.
type busRecorder struct {
	mu     sync.Mutex
	events []chat.Event
}

func (r *busRecorder) attach(t *testing.T, bus event.Bus, subject string) {
	t.Helper()
	_, err := bus.Subscribe(subject, func(data []byte) {
		var ev chat.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Errorf("undecodable bus event: %v", err)
			return
		}
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
}

func (r *busRecorder) byType(eventType string) []chat.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

const testSubject = "rooms.events"

func newTestService(t *testing.T, store Store, presence Presence, bus event.Bus, handles map[string]string) *Service {
	t.Helper()

	svc := NewService(store, presence, bus, staticResolver{handles: handles}, Config{
		EventsSubject:      testSubject,
		SweepInterval:      time.Hour,
		NearbyRadiusMeters: 5000,
		MaxTitleLength:     120,
	}, zerolog.Nop())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := svc.Stop(ctx); err != nil {
			t.Errorf("stop: %v", err)
		}
	})

	return svc
}

func TestCreateThenNearby(t *testing.T) {
	store := newFakeStore()
	bus := event.NewMemoryBus()
	rec := &busRecorder{}
	rec.attach(t, bus, testSubject)
	svc := newTestService(t, store, &fakePresence{}, bus, map[string]string{"alice": "@SilverOtter42"})

	created, err := svc.Create(context.Background(), "alice", "Coffee meetup", []string{"coffee"}, 40.7128, -74.0060)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned room id")
	}

	results, err := svc.Nearby(context.Background(), 40.7128, -74.0060)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 nearby room, got %d", len(results))
	}
	if results[0].ID != created.ID {
		t.Errorf("nearby returned %q, want %q", results[0].ID, created.ID)
	}
	if results[0].DistanceMeters > 1 {
		t.Errorf("distance at the same point = %v, want ~0", results[0].DistanceMeters)
	}
	if results[0].CreatorHandle != "@SilverOtter42" {
		t.Errorf("creator handle = %q, want resolved handle", results[0].CreatorHandle)
	}

	announced := rec.byType(chat.EventRoomCreated)
	if len(announced) != 1 {
		t.Fatalf("expected one room_created announcement, got %d", len(announced))
	}
	if announced[0].Room == nil || announced[0].Room.ID != created.ID {
		t.Error("room_created carries the wrong room")
	}
}

func TestNearbyExcludesRoomsOutsideRadius(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakePresence{}, event.NewMemoryBus(), nil)

	if _, err := svc.Create(context.Background(), "alice", "Close", nil, 40.0, -73.0); err != nil {
		t.Fatalf("create close: %v", err)
	}
	// Roughly 11km north of the query point
	if _, err := svc.Create(context.Background(), "alice", "Far", nil, 40.1, -73.0); err != nil {
		t.Fatalf("create far: %v", err)
	}

	results, err := svc.Nearby(context.Background(), 40.0, -73.0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Close" {
		t.Fatalf("expected only the close room, got %+v", results)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakePresence{}, event.NewMemoryBus(), nil)

	cases := []struct {
		name     string
		title    string
		lat, lng float64
	}{
		{"empty title", "", 40, -73},
		{"blank title", "   ", 40, -73},
		{"long title", string(make([]byte, 121)), 40, -73},
		{"nan lat", "ok", math.NaN(), -73},
		{"inf lng", "ok", 40, math.Inf(1)},
		{"lat out of range", "ok", 91, -73},
		{"lng out of range", "ok", 40, -181},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "alice", tc.title, nil, tc.lat, tc.lng)
			var verr room.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateDefaultsNilTags(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakePresence{}, event.NewMemoryBus(), nil)

	created, err := svc.Create(context.Background(), "alice", "No tags", nil, 40, -73)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Tags == nil || len(created.Tags) != 0 {
		t.Errorf("tags = %v, want empty non-nil slice", created.Tags)
	}
}

func TestDeleteByNonCreatorIsForbidden(t *testing.T) {
	store := newFakeStore()
	presence := &fakePresence{}
	bus := event.NewMemoryBus()
	rec := &busRecorder{}
	rec.attach(t, bus, testSubject)
	svc := newTestService(t, store, presence, bus, nil)

	created, err := svc.Create(context.Background(), "alice", "Mine", nil, 40, -73)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), "bob", created.ID); !errors.Is(err, room.ErrForbidden) {
		t.Fatalf("delete by non-creator = %v, want ErrForbidden", err)
	}

	// Nothing happened: still discoverable, no purge, no announcement
	if _, err := svc.Get(context.Background(), created.ID); err != nil {
		t.Errorf("room vanished after forbidden delete: %v", err)
	}
	if got := presence.purgedIDs(); len(got) != 0 {
		t.Errorf("registry purged on forbidden delete: %v", got)
	}
	if got := rec.byType(chat.EventRoomDeleted); len(got) != 0 {
		t.Errorf("room_deleted announced on forbidden delete")
	}
}

func TestDeleteByCreator(t *testing.T) {
	store := newFakeStore()
	presence := &fakePresence{}
	bus := event.NewMemoryBus()
	rec := &busRecorder{}
	rec.attach(t, bus, testSubject)
	svc := newTestService(t, store, presence, bus, nil)

	created, err := svc.Create(context.Background(), "alice", "Mine", nil, 40, -73)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), "alice", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if got := presence.purgedIDs(); len(got) != 1 || got[0] != created.ID {
		t.Errorf("purged = %v, want [%s]", got, created.ID)
	}
	deleted := rec.byType(chat.EventRoomDeleted)
	if len(deleted) != 1 {
		t.Fatalf("expected exactly one room_deleted, got %d", len(deleted))
	}
	if deleted[0].RoomID != created.ID {
		t.Errorf("room_deleted for %q, want %q", deleted[0].RoomID, created.ID)
	}
}

func TestDeleteUnknownRoom(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakePresence{}, event.NewMemoryBus(), nil)

	if err := svc.Delete(context.Background(), "alice", "nope"); !errors.Is(err, room.ErrNotFound) {
		t.Fatalf("delete unknown = %v, want ErrNotFound", err)
	}
}

func TestDeleteStoreFailureLeavesRegistryUntouched(t *testing.T) {
	store := newFakeStore()
	presence := &fakePresence{}
	svc := newTestService(t, store, presence, event.NewMemoryBus(), nil)

	created, err := svc.Create(context.Background(), "alice", "Mine", nil, 40, -73)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.failDelete = true
	if err := svc.Delete(context.Background(), "alice", created.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	if got := presence.purgedIDs(); len(got) != 0 {
		t.Errorf("registry purged despite store failure: %v", got)
	}
}

func TestSweepExpiredPurgesAndAnnounces(t *testing.T) {
	store := newFakeStore()
	presence := &fakePresence{}
	bus := event.NewMemoryBus()
	rec := &busRecorder{}
	rec.attach(t, bus, testSubject)
	svc := newTestService(t, store, presence, bus, nil)

	created, err := svc.Create(context.Background(), "alice", "Short lived", nil, 40, -73)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.mu.Lock()
	store.expired = []string{created.ID}
	store.mu.Unlock()

	svc.sweepExpired(context.Background())

	if got := presence.purgedIDs(); len(got) != 1 || got[0] != created.ID {
		t.Errorf("purged = %v, want [%s]", got, created.ID)
	}
	deleted := rec.byType(chat.EventRoomDeleted)
	if len(deleted) != 1 || deleted[0].RoomID != created.ID {
		t.Fatalf("expected one room_deleted for %s, got %+v", created.ID, deleted)
	}
}

func TestNearbyValidatesCoords(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakePresence{}, event.NewMemoryBus(), nil)

	_, err := svc.Nearby(context.Background(), math.NaN(), 0)
	var verr room.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
