// internal/adapter/storage/room_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
)

// RoomStore implements persistent, geo-indexed storage for rooms. Every
// read applies the lifetime cutoff, so a room past its lifetime is
// invisible even before the sweep physically removes it.
type RoomStore struct {
	db       *pgxpool.Pool
	lifetime time.Duration
}

// NewRoomStore creates a new room store enforcing the given room lifetime.
func NewRoomStore(db *pgxpool.Pool, lifetime time.Duration) *RoomStore {
	return &RoomStore{
		db:       db,
		lifetime: lifetime,
	}
}

// cutoff is the oldest creation time still considered live.
func (s *RoomStore) cutoff() time.Time {
	return time.Now().Add(-s.lifetime)
}

// Save persists a new room.
func (s *RoomStore) Save(ctx context.Context, r room.Room) error {
	query := `
		INSERT INTO rooms (id, title, creator_id, tags, location, created_at)
		VALUES ($1, $2, $3, $4, ST_MakePoint($5, $6)::geography, $7)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		r.ID,
		r.Title,
		r.CreatorID,
		r.Tags,
		r.Location.Lng,
		r.Location.Lat,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting room: %w", err)
	}

	return nil
}

// FindByID retrieves a live room by ID, or room.ErrNotFound.
func (s *RoomStore) FindByID(ctx context.Context, id string) (*room.Room, error) {
	query := `
		SELECT
			id, title, creator_id, tags,
			ST_X(location::geometry) as lng, ST_Y(location::geometry) as lat,
			created_at
		FROM rooms
		WHERE id = $1 AND created_at > $2
	`

	var r room.Room
	err := s.db.QueryRow(ctx, query, id, s.cutoff()).Scan(
		&r.ID,
		&r.Title,
		&r.CreatorID,
		&r.Tags,
		&r.Location.Lng,
		&r.Location.Lat,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, room.ErrNotFound
		}
		return nil, fmt.Errorf("error querying room: %w", err)
	}

	return &r, nil
}

// FindNear returns live rooms within radiusMeters of the given point,
// ordered by increasing distance.
func (s *RoomStore) FindNear(ctx context.Context, at room.Point, radiusMeters float64) ([]room.Nearby, error) {
	query := `
		SELECT
			id, title, creator_id, tags,
			ST_X(location::geometry) as lng, ST_Y(location::geometry) as lat,
			created_at,
			ST_Distance(location, ST_MakePoint($1, $2)::geography) as distance
		FROM rooms
		WHERE created_at > $3
		AND ST_DWithin(location, ST_MakePoint($1, $2)::geography, $4)
		ORDER BY distance ASC
	`

	rows, err := s.db.Query(ctx, query, at.Lng, at.Lat, s.cutoff(), radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("error executing nearby query: %w", err)
	}
	defer rows.Close()

	var results []room.Nearby
	for rows.Next() {
		var n room.Nearby
		err := rows.Scan(
			&n.ID,
			&n.Title,
			&n.CreatorID,
			&n.Tags,
			&n.Location.Lng,
			&n.Location.Lat,
			&n.CreatedAt,
			&n.DistanceMeters,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning room: %w", err)
		}

		results = append(results, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}

	return results, nil
}

// Delete removes a room. No-op if the room is already absent.
func (s *RoomStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting room: %w", err)
	}
	return nil
}

// DeleteExpired removes every room past its lifetime and returns the
// purged ids so callers can reconcile ephemeral state.
func (s *RoomStore) DeleteExpired(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `DELETE FROM rooms WHERE created_at <= $1 RETURNING id`, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("error deleting expired rooms: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning expired room id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired rooms: %w", err)
	}

	return ids, nil
}
