package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(now *time.Time) (Service, *MemoryStore) {
	store := NewMemoryStore()
	svc := NewService(store, []string{"Admin@TritonThenix.com", " coach@ucsd.edu "}, time.Hour, WithClock(func() time.Time { return *now }))
	return svc, store
}

func TestCreateAndResolve(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(&now)
	ctx := context.Background()

	sess, token, err := svc.Create(ctx, Identity{Email: " Member@UCSD.edu ", Name: "Member"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if token == "" || sess.TokenHash == token {
		t.Fatalf("token %q must be returned and differ from stored hash %q", token, sess.TokenHash)
	}
	if sess.Email != "member@ucsd.edu" {
		t.Errorf("Email = %q, want normalized", sess.Email)
	}
	if sess.IsAdmin {
		t.Error("non allow-listed user marked admin")
	}
	if !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v", sess.ExpiresAt)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d sessions, want 1", store.Len())
	}

	got, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != sess.ID {
		t.Errorf("Resolve() = %s, want %s", got.ID, sess.ID)
	}
}

func TestAdminAllowList(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(&now)
	tests := []struct {
		name      string
		email     string
		tempAdmin bool
		want      bool
	}{
		{"listed", "admin@tritonthenix.com", false, true},
		{"listed with spaces in config", "coach@ucsd.edu", false, true},
		{"case insensitive", "ADMIN@tritonthenix.com", false, true},
		{"not listed", "someone@ucsd.edu", false, false},
		{"temp admin", "someone@ucsd.edu", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, _, err := svc.Create(context.Background(), Identity{Email: tt.email}, tt.tempAdmin)
			if err != nil {
				t.Fatal(err)
			}
			if sess.IsAdmin != tt.want {
				t.Errorf("IsAdmin = %v, want %v", sess.IsAdmin, tt.want)
			}
		})
	}
}

func TestResolveExpired(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, store := newTestService(&now)
	ctx := context.Background()

	_, token, err := svc.Create(ctx, Identity{Email: "a@x.com"}, false)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(time.Hour)

	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Resolve() error = %v, want ErrSessionExpired", err)
	}
	if store.Len() != 0 {
		t.Error("expired session was not removed")
	}
}

func TestDestroy(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(&now)
	ctx := context.Background()

	_, token, err := svc.Create(ctx, Identity{Email: "a@x.com"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Destroy(ctx, token); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve() after Destroy error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.Destroy(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Destroy() error = %v, want ErrSessionNotFound", err)
	}
}

func TestCreateRequiresEmail(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(&now)
	if _, _, err := svc.Create(context.Background(), Identity{Name: "No Email"}, false); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("Create() error = %v, want ErrMissingEmail", err)
	}
}

func TestResolveRejectsBlankToken(t *testing.T) {
	now := time.Now()
	svc, _ := newTestService(&now)
	if _, err := svc.Resolve(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Resolve(\"\") error = %v, want ErrInvalidToken", err)
	}
}
