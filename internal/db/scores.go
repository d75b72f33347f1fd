package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
)

const insertScore = `
	INSERT INTO scores (id, user_id, game_id, score, played_at, played_on, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, game_id) DO NOTHING
	RETURNING id`

const selectScore = `
	SELECT id, user_id, game_id, score, played_at, played_on, created_at
	FROM scores WHERE user_id = $1 AND game_id = $2`

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveScore inserts e; a resubmitted game returns the stored entry.
func (d *DB) SaveScore(ctx context.Context, e analytics.ScoreEntry) (analytics.Accepted, error) {
	var id string
	err := d.conn.QueryRowContext(ctx, insertScore,
		e.ID, e.UserID, e.GameID, e.Score, e.Timestamp, e.Date, e.CreatedAt).Scan(&id)
	return resolveInsert(ctx, d.conn, e, err)
}

// SaveScores stores a batch in one transaction; results follow the order of
// entries.
func (d *DB) SaveScores(ctx context.Context, entries []analytics.ScoreEntry) ([]analytics.Accepted, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertScore)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	out := make([]analytics.Accepted, 0, len(entries))
	for _, e := range entries {
		var id string
		err := stmt.QueryRowContext(ctx,
			e.ID, e.UserID, e.GameID, e.Score, e.Timestamp, e.Date, e.CreatedAt).Scan(&id)
		acc, err := resolveInsert(ctx, tx, e, err)
		if err != nil {
			return nil, fmt.Errorf("saving score in batch: %w", err)
		}
		out = append(out, acc)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing scores: %w", err)
	}
	return out, nil
}

func resolveInsert(ctx context.Context, q querier, e analytics.ScoreEntry, err error) (analytics.Accepted, error) {
	if err == nil {
		return analytics.Accepted{Entry: e, Created: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return analytics.Accepted{}, fmt.Errorf("inserting score: %w", err)
	}
	var existing analytics.ScoreEntry
	err = q.QueryRowContext(ctx, selectScore, e.UserID, e.GameID).Scan(
		&existing.ID, &existing.UserID, &existing.GameID, &existing.Score,
		&existing.Timestamp, &existing.Date, &existing.CreatedAt)
	if err != nil {
		return analytics.Accepted{}, fmt.Errorf("loading existing score: %w", err)
	}
	return analytics.Accepted{Entry: existing}, nil
}

func (d *DB) ScoresByUser(ctx context.Context, userID string) ([]analytics.ScoreEntry, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, user_id, game_id, score, played_at, played_on, created_at
		FROM scores WHERE user_id = $1
		ORDER BY played_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting scores: %w", err)
	}
	defer rows.Close()

	out := []analytics.ScoreEntry{}
	for rows.Next() {
		var e analytics.ScoreEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.GameID, &e.Score, &e.Timestamp, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Leaderboard ranks each player's best score; a tie goes to the earlier game.
func (d *DB) Leaderboard(ctx context.Context, limit int) ([]analytics.LeaderboardEntry, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT b.user_id, p.username, b.score, b.game_id, b.played_on
		FROM (
			SELECT DISTINCT ON (user_id) user_id, score, game_id, played_on, played_at
			FROM scores
			ORDER BY user_id, score DESC, played_at ASC
		) b
		JOIN players p ON p.id = b.user_id
		ORDER BY b.score DESC, b.played_at ASC, b.user_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []analytics.LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e analytics.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score, &e.GameID, &e.Date); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
