package identity

import "context"

// Accounts handles registration and sign-in.
type Accounts interface {
	// Signup registers a new account with a freshly generated anonymous
	// handle. Returns ErrEmailTaken for a duplicate email and a
	// ValidationError for malformed input.
	Signup(ctx context.Context, email, password string) (*User, error)

	// Signin checks credentials and issues a token. Returns
	// ErrInvalidCredentials without distinguishing unknown email from
	// wrong password.
	Signin(ctx context.Context, email, password string) (token, handle string, err error)
}

// Verifier turns a bearer token into a principal.
type Verifier interface {
	// Verify returns the principal encoded in the token, or
	// ErrUnauthorized.
	Verify(token string) (*Principal, error)
}

// Resolver maps a user id to its anonymous display handle. Resolution is
// best-effort: unknown or unreadable users resolve to the anonymous
// fallback handle.
type Resolver interface {
	Resolve(ctx context.Context, userID string) string
}
