package event

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/structs"

	"tritonthenix/schedule"
)

var ErrNotFound = errors.New("event not found")

// Repository is the persistence boundary for schedule entries.
type Repository interface {
	// Create stores e under a new store-assigned ID and returns that ID.
	Create(ctx context.Context, e schedule.Event) (string, error)
	Get(ctx context.Context, id string) (*schedule.Event, error)
	// List returns every entry ordered by date ascending.
	List(ctx context.Context) ([]schedule.Event, error)
	// ListByCreated returns every entry, newest first.
	ListByCreated(ctx context.Context) ([]schedule.Event, error)
	// Update writes only the given fields (keyed by their document names).
	Update(ctx context.Context, id string, fields map[string]any, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	// UpdateAttendees reads the event, hands it to fn and writes back the list
	// fn returns, all in one atomic step. fn may run more than once when the
	// store retries on contention. An error from fn aborts without writing.
	UpdateAttendees(ctx context.Context, id string, fn func(schedule.Event) ([]string, error)) (*schedule.Event, error)
	// Watch calls fn with the full ordered list now and after every change
	// until ctx is done.
	Watch(ctx context.Context, fn func([]schedule.Event)) error
}

// patchFields flattens the non-nil fields of p into document field names.
func patchFields(p schedule.Patch) map[string]any {
	fields := make(map[string]any)
	for _, f := range structs.New(p).Fields() {
		if f.IsZero() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag("structs"), ",")
		value := reflect.Indirect(reflect.ValueOf(f.Value())).Interface()
		if t, ok := value.(schedule.Type); ok {
			value = string(t)
		}
		fields[name] = value
	}
	return fields
}
