package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tritonthenix/set"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrMissingEmail    = errors.New("identity has no email")
)

const DefaultTTL = 24 * time.Hour

// Identity is what a verified credential tells us about the person signing in.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Session lives from credential acceptance until sign-out or expiry. Only the
// hash of the bearer token is ever stored.
type Session struct {
	ID        string    `json:"id" firestore:"id" db:"id"`
	TokenHash string    `json:"-" firestore:"tokenHash" db:"token_hash"`
	Email     string    `json:"email" firestore:"email" db:"email"`
	Name      string    `json:"name" firestore:"name" db:"name"`
	Picture   string    `json:"picture,omitempty" firestore:"picture" db:"picture"`
	IsAdmin   bool      `json:"isAdmin" firestore:"isAdmin" db:"is_admin"`
	TempAdmin bool      `json:"tempAdmin" firestore:"tempAdmin" db:"temp_admin"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt" db:"expires_at"`
}

func (s *Session) Identity() Identity {
	return Identity{Email: s.Email, Name: s.Name, Picture: s.Picture}
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions keyed by token hash.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, tokenHash string) (*Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

type Service interface {
	// Create starts a session for a verified identity and returns it together
	// with the raw bearer token. The token is not recoverable afterwards.
	Create(ctx context.Context, identity Identity, tempAdmin bool) (*Session, string, error)
	// Resolve looks up the session for a bearer token, rejecting expired ones.
	Resolve(ctx context.Context, token string) (*Session, error)
	// Destroy ends the session for a bearer token.
	Destroy(ctx context.Context, token string) error
	// IsAdmin checks the allow-list. Emails compare case-insensitively.
	IsAdmin(email string) bool
}

type service struct {
	store  Store
	admins *set.Set[string]
	ttl    time.Duration
	now    func() time.Time
}

var _ Service = (*service)(nil)

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(store Store, admins []string, ttl time.Duration, opts ...Option) Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	allow := set.New[string]()
	for _, a := range admins {
		if a = normalizeEmail(a); a != "" {
			allow.Add(a)
		}
	}
	s := &service{
		store:  store,
		admins: allow,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) IsAdmin(email string) bool {
	return s.admins.Contains(normalizeEmail(email))
}

func (s *service) Create(ctx context.Context, identity Identity, tempAdmin bool) (*Session, string, error) {
	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, "", ErrMissingEmail
	}
	pair, err := GenerateHashedToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		TokenHash: pair.Hash,
		Email:     email,
		Name:      strings.TrimSpace(identity.Name),
		Picture:   identity.Picture,
		IsAdmin:   tempAdmin || s.IsAdmin(email),
		TempAdmin: tempAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}
	log.Info().Str("session", sess.ID).Str("email", email).Bool("admin", sess.IsAdmin).Msg("session created")
	return sess, pair.Token, nil
}

func (s *service) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	hash := HashToken(token)
	sess, err := s.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.store.Delete(ctx, hash); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Warn().Err(err).Str("session", sess.ID).Msg("failed to delete expired session")
		}
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func (s *service) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	return s.store.Delete(ctx, HashToken(token))
}
