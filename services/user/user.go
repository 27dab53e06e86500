package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tritonthenix/services/session"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrMissingEmail = errors.New("user email is required")
)

// Repository persists profiles keyed by lowercase email.
type Repository interface {
	Get(ctx context.Context, email string) (*Profile, error)
	// GetMany returns the profiles that exist, in no particular order.
	GetMany(ctx context.Context, emails []string) ([]Profile, error)
	Save(ctx context.Context, p Profile) error
	// SetPicture replaces the picture URL and stamps UpdatedAt with at.
	SetPicture(ctx context.Context, email, url string, at time.Time) error
}

type Service interface {
	// RecordLogin creates or refreshes the profile for a signed-in identity.
	// An uploaded picture is never replaced by the identity provider's one.
	RecordLogin(ctx context.Context, identity session.Identity, isAdmin bool) (*Profile, error)
	Get(ctx context.Context, email string) (*Profile, error)
	// Attendees resolves a list of emails to profiles, in the given order.
	// Emails without a profile yield a profile holding only the email.
	Attendees(ctx context.Context, emails []string) ([]Profile, error)
	SetPicture(ctx context.Context, email, url string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) RecordLogin(ctx context.Context, identity session.Identity, isAdmin bool) (*Profile, error) {
	email := normalize(identity.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	now := s.now()
	p, err := s.repo.Get(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		p = &Profile{Email: email, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("failed to fetch user %s: %w", email, err)
	}
	if name := strings.TrimSpace(identity.Name); name != "" {
		p.Name = name
	}
	if p.ProfilePicture == "" {
		p.ProfilePicture = identity.Picture
	}
	p.IsAdmin = isAdmin
	p.UpdatedAt = now
	p.LastLogin = now
	if err := s.repo.Save(ctx, *p); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to save user profile")
		return nil, fmt.Errorf("failed to save user %s: %w", email, err)
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, email string) (*Profile, error) {
	email = normalize(email)
	if email == "" {
		return nil, ErrMissingEmail
	}
	return s.repo.Get(ctx, email)
}

func (s *service) Attendees(ctx context.Context, emails []string) ([]Profile, error) {
	if len(emails) == 0 {
		return []Profile{}, nil
	}
	keys := make([]string, 0, len(emails))
	for _, e := range emails {
		keys = append(keys, normalize(e))
	}
	found, err := s.repo.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendee profiles: %w", err)
	}
	byEmail := make(map[string]Profile, len(found))
	for _, p := range found {
		byEmail[p.Email] = p
	}
	result := make([]Profile, 0, len(keys))
	for _, k := range keys {
		p, ok := byEmail[k]
		if !ok {
			p = Profile{Email: k}
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *service) SetPicture(ctx context.Context, email, url string) error {
	email = normalize(email)
	if email == "" {
		return ErrMissingEmail
	}
	if err := s.repo.SetPicture(ctx, email, url, s.now()); err != nil {
		return fmt.Errorf("failed to set picture for %s: %w", email, err)
	}
	return nil
}
