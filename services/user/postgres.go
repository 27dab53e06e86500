package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectUsers = `SELECT email, name, profile_picture, is_admin, created_at, updated_at, last_login FROM users`

type postgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*postgresRepository)(nil)

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Get(ctx context.Context, email string) (*Profile, error) {
	rows, err := r.pool.Query(ctx, selectUsers+` WHERE email = $1`, email)
	if err != nil {
		return nil, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Profile])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepository) GetMany(ctx context.Context, emails []string) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, selectUsers+` WHERE email = ANY($1)`, emails)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Profile])
}

func (r *postgresRepository) Save(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (email, name, profile_picture, is_admin, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			profile_picture = EXCLUDED.profile_picture,
			is_admin = EXCLUDED.is_admin,
			updated_at = EXCLUDED.updated_at,
			last_login = EXCLUDED.last_login`,
		p.Email, p.Name, p.ProfilePicture, p.IsAdmin, p.CreatedAt, p.UpdatedAt, p.LastLogin,
	)
	return err
}

func (r *postgresRepository) SetPicture(ctx context.Context, email, url string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET profile_picture = $1, updated_at = $2 WHERE email = $3`, url, at, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
