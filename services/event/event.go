package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tritonthenix/schedule"
	"tritonthenix/services/session"
)

var (
	ErrUnauthenticated      = errors.New("sign in required")
	ErrForbidden            = errors.New("admin privileges required")
	ErrConfirmationRequired = errors.New("delete must be confirmed with the event id")
)

// Service defines schedule CRUD, RSVP admission and schedule browsing. Every
// write path checks the caller's session itself; the HTTP layer's checks are
// not relied upon.
type Service interface {
	// Create validates the draft and stores a new entry with a snapshot of the
	// creator's identity. Returns the new ID or a *schedule.ValidationError.
	Create(ctx context.Context, sess *session.Session, draft schedule.Draft) (string, error)
	Get(ctx context.Context, id string) (*schedule.Event, error)
	// List returns every entry in chronological order.
	List(ctx context.Context) ([]schedule.Event, error)
	// ListHistory returns every entry newest first, for admins.
	ListHistory(ctx context.Context, sess *session.Session) ([]schedule.Event, error)
	// Update applies a per-field partial update.
	Update(ctx context.Context, sess *session.Session, id string, patch schedule.Patch) error
	// Delete removes an entry. confirm must repeat the event ID.
	Delete(ctx context.Context, sess *session.Session, id string, confirm string) error
	// Duplicate copies an entry to a new date and time with no attendees.
	Duplicate(ctx context.Context, sess *session.Session, id, date, clock string) (string, error)
	// ToggleRSVP adds or removes the caller from the attendee list.
	ToggleRSVP(ctx context.Context, sess *session.Session, id string) (*RSVPResult, error)
	// Workouts returns the workouts on a venue day.
	Workouts(ctx context.Context, date string) ([]schedule.Event, error)
	// Events buckets entries of type Event relative to now.
	Events(ctx context.Context, now time.Time) (schedule.Buckets, error)
	Watch(ctx context.Context, fn func([]schedule.Event)) error
}

type RSVPResult struct {
	Event   schedule.Event
	Outcome schedule.Outcome
}

type service struct {
	repo Repository
	now  func() time.Time
}

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
		now:  time.Now,
	}
}

func requireAdmin(sess *session.Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if !sess.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *service) Create(ctx context.Context, sess *session.Session, draft schedule.Draft) (string, error) {
	if err := requireAdmin(sess); err != nil {
		return "", err
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return "", err
	}
	now := s.now()
	e := schedule.Event{
		Name:                  draft.Name,
		Type:                  draft.Type,
		Date:                  draft.Date,
		Time:                  draft.Time,
		Description:           draft.Description,
		AdditionalDetails:     draft.AdditionalDetails,
		Tags:                  draft.Tags,
		CreatorEmail:          sess.Email,
		CreatorName:           sess.Name,
		CreatorProfilePicture: sess.Picture,
		MaxRSVPs:              draft.MaxRSVPs,
		Attendees:             []string{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	id, err := s.repo.Create(ctx, e)
	if err != nil {
		log.Error().Err(err).Str("name", e.Name).Msg("failed to create event")
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	log.Info().Str("event", id).Str("type", string(e.Type)).Str("by", sess.Email).Msg("event created")
	return id, nil
}

func (s *service) Get(ctx context.Context, id string) (*schedule.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *service) List(ctx context.Context) ([]schedule.Event, error) {
	return s.repo.List(ctx)
}

func (s *service) ListHistory(ctx context.Context, sess *session.Session) ([]schedule.Event, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.repo.ListByCreated(ctx)
}

func (s *service) Update(ctx context.Context, sess *session.Session, id string, patch schedule.Patch) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return err
	}
	fields := patchFields(patch)
	if err := s.repo.Update(ctx, id, fields, s.now()); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error().Err(err).Str("event", id).Msg("failed to update event")
		}
		return fmt.Errorf("failed to update event %s: %w", id, err)
	}
	log.Info().Str("event", id).Int("fields", len(fields)).Str("by", sess.Email).Msg("event updated")
	return nil
}

func (s *service) Delete(ctx context.Context, sess *session.Session, id string, confirm string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if id == "" || confirm != id {
		return ErrConfirmationRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error().Err(err).Str("event", id).Msg("failed to delete event")
		}
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	log.Info().Str("event", id).Str("by", sess.Email).Msg("event deleted")
	return nil
}

func (s *service) Duplicate(ctx context.Context, sess *session.Session, id, date, clock string) (string, error) {
	if err := requireAdmin(sess); err != nil {
		return "", err
	}
	original, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	draft := schedule.Draft{
		Name:              original.Name,
		Type:              original.Type,
		Date:              original.Date,
		Time:              original.Time,
		Description:       original.Description,
		AdditionalDetails: original.AdditionalDetails,
		Tags:              original.Tags,
		MaxRSVPs:          original.MaxRSVPs,
	}
	if strings.TrimSpace(date) != "" {
		draft.Date = date
	}
	if strings.TrimSpace(clock) != "" {
		draft.Time = clock
	}
	return s.Create(ctx, sess, draft)
}

func (s *service) ToggleRSVP(ctx context.Context, sess *session.Session, id string) (*RSVPResult, error) {
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	var outcome schedule.Outcome
	updated, err := s.repo.UpdateAttendees(ctx, id, func(e schedule.Event) ([]string, error) {
		attendees, o, err := schedule.ToggleRSVP(e, sess.Email)
		outcome = o
		return attendees, err
	})
	switch {
	case errors.Is(err, schedule.ErrEventFull):
		log.Info().Str("event", id).Str("email", sess.Email).Msg("rsvp rejected, event full")
		return nil, err
	case errors.Is(err, ErrNotFound):
		return nil, err
	case err != nil:
		log.Error().Err(err).Str("event", id).Str("email", sess.Email).Msg("failed to update rsvp")
		return nil, fmt.Errorf("failed to update rsvp: %w", err)
	}
	log.Info().Str("event", id).Str("email", sess.Email).Str("outcome", string(outcome)).Int("attendees", len(updated.Attendees)).Msg("rsvp updated")
	return &RSVPResult{Event: *updated, Outcome: outcome}, nil
}

func (s *service) Workouts(ctx context.Context, date string) ([]schedule.Event, error) {
	if date == "" {
		date = schedule.DayOf(s.now())
	}
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.FilterByDay(events, date), nil
}

func (s *service) Events(ctx context.Context, now time.Time) (schedule.Buckets, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return schedule.Buckets{}, err
	}
	return schedule.Classify(schedule.OfType(events, schedule.TypeEvent), now), nil
}

func (s *service) Watch(ctx context.Context, fn func([]schedule.Event)) error {
	return s.repo.Watch(ctx, fn)
}
