package identity

import "time"

// User is a registered account. Users are only ever shown to each other
// through their anonymous handle.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	AnonymousHandle string    `json:"anonymousHandle"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Principal is an authenticated caller, as extracted from a verified token.
type Principal struct {
	UserID string
	Email  string
}
