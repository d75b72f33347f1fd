package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint.
const uniqueViolation = "23505"

func (d *DB) CreatePlayer(ctx context.Context, p analytics.Player) (analytics.Player, error) {
	err := d.conn.QueryRowContext(ctx, `
		INSERT INTO players (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, p.ID, p.Username, p.PasswordHash).Scan(&p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return analytics.Player{}, analytics.ErrUsernameTaken
		}
		return analytics.Player{}, fmt.Errorf("creating player: %w", err)
	}
	return p, nil
}

func (d *DB) PlayerByUsername(ctx context.Context, username string) (analytics.Player, error) {
	return d.scanPlayer(d.conn.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM players WHERE lower(username) = lower($1)
	`, username))
}

func (d *DB) PlayerByID(ctx context.Context, id string) (analytics.Player, error) {
	return d.scanPlayer(d.conn.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM players WHERE id = $1
	`, id))
}

func (d *DB) scanPlayer(row *sql.Row) (analytics.Player, error) {
	var p analytics.Player
	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return analytics.Player{}, analytics.ErrNotFound
	}
	if err != nil {
		return analytics.Player{}, fmt.Errorf("getting player: %w", err)
	}
	return p, nil
}
