package db

import (
	"context"
	"fmt"

	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
)

// AwardBadge records a badge once per player. scoreID may be empty for
// lifetime badges.
func (d *DB) AwardBadge(ctx context.Context, userID string, badge analytics.BadgeID, scoreID string) error {
	var ref *string
	if scoreID != "" {
		ref = &scoreID
	}
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO player_badges (player_id, badge_id, score_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, badge_id) DO NOTHING
	`, userID, string(badge), ref)
	if err != nil {
		return fmt.Errorf("awarding badge: %w", err)
	}
	return nil
}

func (d *DB) Badges(ctx context.Context, userID string) ([]analytics.BadgeID, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT badge_id FROM player_badges WHERE player_id = $1 ORDER BY awarded_at, badge_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting badges: %w", err)
	}
	defer rows.Close()

	badges := []analytics.BadgeID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		badges = append(badges, analytics.BadgeID(id))
	}
	return badges, rows.Err()
}
