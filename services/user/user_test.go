package user

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"tritonthenix/services/session"
)

func newTestService(now time.Time) (*service, *MemoryRepository) {
	repo := NewMemoryRepository()
	return &service{repo: repo, now: func() time.Time { return now }}, repo
}

func TestRecordLoginCreatesProfile(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	s, repo := newTestService(now)

	p, err := s.RecordLogin(context.Background(), session.Identity{
		Email: "Member@UCSD.edu", Name: " Member ", Picture: "https://google/pic",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	want := Profile{
		Email:          "member@ucsd.edu",
		Name:           "Member",
		ProfilePicture: "https://google/pic",
		CreatedAt:      now,
		UpdatedAt:      now,
		LastLogin:      now,
	}
	stored, _ := repo.Get(context.Background(), "member@ucsd.edu")
	if !reflect.DeepEqual(*p, want) || !reflect.DeepEqual(*stored, want) {
		t.Errorf("RecordLogin() = %+v, stored %+v, want %+v", *p, *stored, want)
	}
}

func TestRecordLoginKeepsUploadedPicture(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, repo := newTestService(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC))
	_ = repo.Save(context.Background(), Profile{
		Email:          "member@ucsd.edu",
		Name:           "Old Name",
		ProfilePicture: "https://storage/uploaded",
		CreatedAt:      created,
	})

	p, err := s.RecordLogin(context.Background(), session.Identity{
		Email: "member@ucsd.edu", Name: "New Name", Picture: "https://google/pic",
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if p.ProfilePicture != "https://storage/uploaded" {
		t.Errorf("ProfilePicture = %q, uploaded picture replaced", p.ProfilePicture)
	}
	if !p.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, created)
	}
	if p.Name != "New Name" || !p.IsAdmin || !p.LastLogin.Equal(s.now()) || !p.UpdatedAt.Equal(s.now()) {
		t.Errorf("profile not refreshed: %+v", p)
	}
}

func TestRecordLoginRequiresEmail(t *testing.T) {
	s, _ := newTestService(time.Now())
	if _, err := s.RecordLogin(context.Background(), session.Identity{Name: "x"}, false); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("error = %v, want ErrMissingEmail", err)
	}
}

func TestAttendees(t *testing.T) {
	s, repo := newTestService(time.Now())
	ctx := context.Background()
	_ = repo.Save(ctx, Profile{Email: "a@x.com", Name: "A"})
	_ = repo.Save(ctx, Profile{Email: "c@x.com", Name: "C"})

	tests := []struct {
		name   string
		emails []string
		want   []Profile
	}{
		{"empty", nil, []Profile{}},
		{
			"keeps order and fills missing",
			[]string{"c@x.com", "B@x.com", "a@x.com"},
			[]Profile{{Email: "c@x.com", Name: "C"}, {Email: "b@x.com"}, {Email: "a@x.com", Name: "A"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Attendees(ctx, tt.emails)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Attendees() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSetPicture(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	s, repo := newTestService(now)
	ctx := context.Background()
	if err := s.SetPicture(ctx, "ghost@x.com", "u"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPicture() on missing user error = %v, want ErrNotFound", err)
	}
	_ = repo.Save(ctx, Profile{Email: "a@x.com"})
	if err := s.SetPicture(ctx, "A@x.com", "https://storage/a"); err != nil {
		t.Fatal(err)
	}
	p, _ := repo.Get(ctx, "a@x.com")
	if p.ProfilePicture != "https://storage/a" || !p.UpdatedAt.Equal(now) {
		t.Errorf("profile = %+v, want picture set and UpdatedAt %v", p, now)
	}
}
