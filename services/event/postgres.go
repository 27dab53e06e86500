package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tritonthenix/schedule"
)

// NotifyChannel is raised by the events table trigger on every write.
const NotifyChannel = "events_changed"

const selectEvents = `
	SELECT id, name, type, "date", "time", description, additional_details, tags,
	       creator_email, creator_name, creator_profile_picture, max_rsvps, attendees,
	       created_at, updated_at
	FROM events`

var columns = map[string]string{
	"name":              "name",
	"type":              "type",
	"date":              `"date"`,
	"time":              `"time"`,
	"description":       "description",
	"additionalDetails": "additional_details",
	"tags":              "tags",
	"maxRSVPs":          "max_rsvps",
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*postgresRepository)(nil)

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, e schedule.Event) (string, error) {
	id := uuid.NewString()
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, name, type, "date", "time", description, additional_details, tags,
		                    creator_email, creator_name, creator_profile_picture, max_rsvps, attendees,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		id, e.Name, string(e.Type), e.Date, e.Time, e.Description, e.AdditionalDetails, e.Tags,
		e.CreatorEmail, e.CreatorName, e.CreatorProfilePicture, e.MaxRSVPs, e.Attendees,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *postgresRepository) query(ctx context.Context, q pgx.Tx, sql string, args ...any) ([]schedule.Event, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if q != nil {
		rows, err = q.Query(ctx, sql, args...)
	} else {
		rows, err = r.pool.Query(ctx, sql, args...)
	}
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[schedule.Event])
}

func (r *postgresRepository) Get(ctx context.Context, id string) (*schedule.Event, error) {
	events, err := r.query(ctx, nil, selectEvents+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return &events[0], nil
}

func (r *postgresRepository) List(ctx context.Context) ([]schedule.Event, error) {
	return r.query(ctx, nil, selectEvents+` ORDER BY "date" ASC, "time" ASC`)
}

func (r *postgresRepository) ListByCreated(ctx context.Context) ([]schedule.Event, error) {
	return r.query(ctx, nil, selectEvents+` ORDER BY created_at DESC`)
}

func (r *postgresRepository) Update(ctx context.Context, id string, fields map[string]any, updatedAt time.Time) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		col, ok := columns[k]
		if !ok {
			return fmt.Errorf("unknown event field %q", k)
		}
		args = append(args, fields[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	sql := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAttendees holds the row lock between the capacity check and the
// write, closing the overshoot race between concurrent RSVPs.
func (r *postgresRepository) UpdateAttendees(ctx context.Context, id string, fn func(schedule.Event) ([]string, error)) (*schedule.Event, error) {
	var result *schedule.Event
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		events, err := r.query(ctx, tx, selectEvents+` WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return ErrNotFound
		}
		e := events[0]
		attendees, err := fn(e)
		if err != nil {
			return err
		}
		now := time.Now()
		if _, err := tx.Exec(ctx, `UPDATE events SET attendees = $1, updated_at = $2 WHERE id = $3`, attendees, now, id); err != nil {
			return err
		}
		e.Attendees = attendees
		e.UpdatedAt = now
		result = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepository) Watch(ctx context.Context, fn func([]schedule.Event)) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener: %w", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	for {
		events, err := r.List(ctx)
		if err != nil {
			return err
		}
		fn(events)
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("wait for %s: %w", NotifyChannel, err)
		}
	}
}
