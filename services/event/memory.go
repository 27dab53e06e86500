package event

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tritonthenix/schedule"
)

// MemoryRepository keeps events in process memory for local development and
// tests. A single mutex makes UpdateAttendees atomic.
type MemoryRepository struct {
	mu       sync.Mutex
	events   map[string]schedule.Event
	watchers map[int]chan struct{}
	nextID   int
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		events:   make(map[string]schedule.Event),
		watchers: make(map[int]chan struct{}),
	}
}

func clone(e schedule.Event) schedule.Event {
	e.Attendees = slices.Clone(e.Attendees)
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return e
}

// notify must be called with mu held.
func (m *MemoryRepository) notify() {
	for _, ch := range m.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *MemoryRepository) Create(_ context.Context, e schedule.Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	m.events[e.ID] = clone(e)
	m.notify()
	return e.ID, nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*schedule.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e = clone(e)
	return &e, nil
}

func (m *MemoryRepository) snapshot() []schedule.Event {
	events := make([]schedule.Event, 0, len(m.events))
	for _, e := range m.events {
		events = append(events, clone(e))
	}
	return events
}

func (m *MemoryRepository) List(_ context.Context) ([]schedule.Event, error) {
	m.mu.Lock()
	events := m.snapshot()
	m.mu.Unlock()
	schedule.SortByDate(events)
	return events, nil
}

func (m *MemoryRepository) ListByCreated(_ context.Context) ([]schedule.Event, error) {
	m.mu.Lock()
	events := m.snapshot()
	m.mu.Unlock()
	schedule.SortByCreatedDesc(events)
	return events, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, fields map[string]any, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			e.Name = v.(string)
		case "type":
			e.Type = schedule.Type(v.(string))
		case "date":
			e.Date = v.(string)
		case "time":
			e.Time = v.(string)
		case "description":
			e.Description = v.(string)
		case "additionalDetails":
			e.AdditionalDetails = v.(string)
		case "tags":
			e.Tags = v.(string)
		case "maxRSVPs":
			e.MaxRSVPs = v.(int)
		}
	}
	e.UpdatedAt = updatedAt
	m.events[id] = e
	m.notify()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	m.notify()
	return nil
}

func (m *MemoryRepository) UpdateAttendees(_ context.Context, id string, fn func(schedule.Event) ([]string, error)) (*schedule.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	attendees, err := fn(clone(e))
	if err != nil {
		return nil, err
	}
	e.Attendees = slices.Clone(attendees)
	e.UpdatedAt = time.Now()
	m.events[id] = e
	m.notify()
	result := clone(e)
	return &result, nil
}

func (m *MemoryRepository) Watch(ctx context.Context, fn func([]schedule.Event)) error {
	changed := make(chan struct{}, 1)
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.watchers[id] = changed
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}()

	for {
		events, _ := m.List(ctx)
		fn(events)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
