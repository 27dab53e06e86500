package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"tritonthenix/clients/gcp"
	"tritonthenix/services/user"
)

const MaxPictureBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("profile picture must be an image")
	ErrTooLarge        = errors.New("profile picture exceeds 5 MiB")
	ErrNotConfigured   = errors.New("picture storage is not configured")
)

// ObjectStore is the part of a storage bucket pictures need.
type ObjectStore interface {
	Put(ctx context.Context, object, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
}

type Service interface {
	// Upload stores the picture and points the user's profile at it.
	Upload(ctx context.Context, email, contentType string, r io.Reader) (string, error)
	// Remove deletes the stored picture, if any, and clears the profile field.
	Remove(ctx context.Context, email string) error
}

type service struct {
	store ObjectStore
	users user.Service
}

var _ Service = (*service)(nil)

func NewService(store ObjectStore, users user.Service) Service {
	return &service{store: store, users: users}
}

func ObjectName(email string) string {
	return fmt.Sprintf("profilePictures/%s/profile", strings.ToLower(strings.TrimSpace(email)))
}

// Upload reads at most MaxPictureBytes+1 bytes from r before rejecting it.
func (s *service) Upload(ctx context.Context, email, contentType string, r io.Reader) (string, error) {
	if s.store == nil {
		return "", ErrNotConfigured
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedType
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxPictureBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read picture: %w", err)
	}
	if len(data) > MaxPictureBytes {
		return "", ErrTooLarge
	}
	url, err := s.store.Put(ctx, ObjectName(email), contentType, bytes.NewReader(data))
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to upload profile picture")
		return "", err
	}
	if err := s.users.SetPicture(ctx, email, url); err != nil {
		if derr := s.store.Delete(ctx, ObjectName(email)); derr != nil {
			log.Warn().Err(derr).Str("email", email).Msg("failed to delete orphaned profile picture")
		}
		return "", err
	}
	return url, nil
}

func (s *service) Remove(ctx context.Context, email string) error {
	if s.store != nil {
		err := s.store.Delete(ctx, ObjectName(email))
		if err != nil && !errors.Is(err, gcp.ErrObjectNotFound) {
			log.Warn().Err(err).Str("email", email).Msg("failed to delete profile picture object")
		}
	}
	return s.users.SetPicture(ctx, email, "")
}
