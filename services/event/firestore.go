package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tritonthenix/schedule"
	"tritonthenix/utils"
)

const collection = "events"

type firestoreRepository struct {
	db *firestore.Client
}

var _ Repository = (*firestoreRepository)(nil)

func NewFirestoreRepository(db *firestore.Client) Repository {
	return &firestoreRepository{db: db}
}

func (r *firestoreRepository) Create(ctx context.Context, e schedule.Event) (string, error) {
	ref := r.db.Collection(collection).NewDoc()
	e.ID = ref.ID
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	if _, err := ref.Create(ctx, e); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (r *firestoreRepository) Get(ctx context.Context, id string) (*schedule.Event, error) {
	doc, err := r.db.Collection(collection).Doc(id).Get(ctx)
	if utils.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toEvent(doc)
}

func toEvent(doc *firestore.DocumentSnapshot) (*schedule.Event, error) {
	e := &schedule.Event{}
	if err := doc.DataTo(e); err != nil {
		return nil, fmt.Errorf("failed to convert doc %s: %w", doc.Ref.ID, err)
	}
	e.ID = doc.Ref.ID
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return e, nil
}

// byDate orders on a single field so no composite index is needed. Entries
// sharing a date are put in time order by collectByDate.
func (r *firestoreRepository) byDate() firestore.Query {
	return r.db.Collection(collection).OrderBy("date", firestore.Asc)
}

func collectByDate(iter *firestore.DocumentIterator) ([]schedule.Event, error) {
	events, err := utils.IteratorToStructs[schedule.Event](iter)
	if err != nil {
		return nil, err
	}
	schedule.SortByDate(events)
	return events, nil
}

func (r *firestoreRepository) List(ctx context.Context) ([]schedule.Event, error) {
	return collectByDate(r.byDate().Documents(ctx))
}

func (r *firestoreRepository) ListByCreated(ctx context.Context) ([]schedule.Event, error) {
	docs, err := r.db.Collection(collection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return utils.GetAllToStructs[schedule.Event](docs)
}

func (r *firestoreRepository) Update(ctx context.Context, id string, fields map[string]any, updatedAt time.Time) error {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: updatedAt})
	_, err := r.db.Collection(collection).Doc(id).Update(ctx, updates)
	if utils.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	if utils.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

// UpdateAttendees re-reads and re-checks inside a transaction, so two
// concurrent RSVPs near the cap cannot both be admitted.
func (r *firestoreRepository) UpdateAttendees(ctx context.Context, id string, fn func(schedule.Event) ([]string, error)) (*schedule.Event, error) {
	ref := r.db.Collection(collection).Doc(id)
	var result *schedule.Event
	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if utils.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		e, err := toEvent(doc)
		if err != nil {
			return err
		}
		attendees, err := fn(*e)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Update(ref, []firestore.Update{
			{Path: "attendees", Value: attendees},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		e.Attendees = attendees
		e.UpdatedAt = now
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *firestoreRepository) Watch(ctx context.Context, fn func([]schedule.Event)) error {
	iter := r.byDate().Snapshots(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		if err != nil {
			return fmt.Errorf("events snapshot: %w", err)
		}
		events, err := collectByDate(snap.Documents)
		if err != nil {
			return err
		}
		fn(events)
	}
}
