// internal/service/identity/service.go

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
	"github.com/shivraj-yadav/ChugLi/internal/metrics"
)

// Store defines the user persistence contract the identity service
// consumes.
type Store interface {
	Save(ctx context.Context, u identity.User) error
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
	FindByID(ctx context.Context, id string) (*identity.User, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
}

// Config contains configuration for the identity service.
type Config struct {
	TokenSecret string
	TokenExpiry time.Duration
}

const (
	minPasswordLength = 6
	handleGenAttempts = 5
	fallbackHandle    = "@Anonymous"
)

// Service implements accounts, token verification and handle resolution.
type Service struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
}

// NewService creates a new identity service.
func NewService(store Store, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Signup registers a new account under a freshly generated anonymous
// handle.
func (s *Service) Signup(ctx context.Context, email, password string) (*identity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, identity.ValidationError{Field: "email", Reason: "required"}
	}
	if len(password) < minPasswordLength {
		return nil, identity.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, identity.ErrEmailTaken
	} else if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, fmt.Errorf("error checking email: %w", err)
	}

	handle, err := s.uniqueHandle(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := identity.User{
		ID:              uuid.New().String(),
		Email:           email,
		PasswordHash:    string(hash),
		AnonymousHandle: handle,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("error saving user: %w", err)
	}

	metrics.UsersRegistered.Inc()

	return &user, nil
}

// Signin checks credentials and issues a signed token carrying the
// principal. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *Service) Signin(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return "", "", identity.ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("error finding user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", identity.ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"userId": user.ID,
		"email":  user.Email,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(s.cfg.TokenExpiry).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", "", fmt.Errorf("error signing token: %w", err)
	}

	return token, user.AnonymousHandle, nil
}

// Verify parses and validates a token, returning the principal it encodes.
func (s *Service) Verify(tokenStr string) (*identity.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, identity.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, identity.ErrUnauthorized
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return nil, identity.ErrUnauthorized
	}
	email, _ := claims["email"].(string)

	return &identity.Principal{UserID: userID, Email: email}, nil
}

// Resolve maps a user id to its anonymous handle. Best-effort: unknown or
// unreadable users resolve to the fallback handle.
func (s *Service) Resolve(ctx context.Context, userID string) string {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, identity.ErrUserNotFound) {
			s.logger.Warn().Err(err).Str("user", userID).Msg("error resolving handle")
		}
		return fallbackHandle
	}
	return user.AnonymousHandle
}

// uniqueHandle generates a handle, retrying on collisions a bounded number
// of times.
func (s *Service) uniqueHandle(ctx context.Context) (string, error) {
	for i := 0; i < handleGenAttempts; i++ {
		candidate := generateHandle()

		exists, err := s.store.HandleExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("error checking handle: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not generate a unique handle after %d attempts", handleGenAttempts)
}
