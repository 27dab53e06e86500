package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*postgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (p *postgresStore) Save(ctx context.Context, s *Session) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO sessions (id, token_hash, email, name, picture, is_admin, temp_admin, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.TokenHash, s.Email, s.Name, s.Picture, s.IsAdmin, s.TempAdmin, s.CreatedAt, s.ExpiresAt,
	)
	return err
}

func (p *postgresStore) Get(ctx context.Context, tokenHash string) (*Session, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, token_hash, email, name, picture, is_admin, temp_admin, created_at, expires_at
		FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return nil, err
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Session])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

func (p *postgresStore) Delete(ctx context.Context, tokenHash string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
