package room

import "time"

// Point is a geographic coordinate pair (WGS84).
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Room represents a location-scoped, time-bounded chat topic. All fields
// are set at creation and immutable afterwards; rooms are removed either by
// an explicit creator delete or by store-level expiry.
type Room struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatorID string    `json:"creatorId"`
	Tags      []string  `json:"tags"`
	Location  Point     `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// Nearby is a discovery result: a room, its distance from the query point,
// and the creator resolved to a display handle.
type Nearby struct {
	Room
	CreatorHandle  string  `json:"creatorHandle"`
	DistanceMeters float64 `json:"distanceMeters"`
}
