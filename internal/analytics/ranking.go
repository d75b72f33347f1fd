package analytics

import "sort"

// SortNewestFirst orders entries by timestamp, newest first.
func SortNewestFirst(entries []ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
}

// RankLeaderboard keeps each player's best score, highest first. A tie goes
// to the score reached earlier.
func RankLeaderboard(entries []ScoreEntry, usernames map[string]string, limit int) []LeaderboardEntry {
	best := make(map[string]ScoreEntry)
	for _, e := range entries {
		cur, ok := best[e.UserID]
		if !ok || e.Score > cur.Score || (e.Score == cur.Score && e.Timestamp < cur.Timestamp) {
			best[e.UserID] = e
		}
	}

	board := make([]LeaderboardEntry, 0, len(best))
	for userID, e := range best {
		board = append(board, LeaderboardEntry{
			UserID:    userID,
			Username:  usernames[userID],
			Score:     e.Score,
			GameID:    e.GameID,
			Date:      e.Date,
			timestamp: e.Timestamp,
		})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		if board[i].timestamp != board[j].timestamp {
			return board[i].timestamp < board[j].timestamp
		}
		return board[i].UserID < board[j].UserID
	})

	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// LifetimeStats summarises a player's scores. The win streak counts the most
// recent consecutive wins.
func LifetimeStats(p Player, entries []ScoreEntry) PlayerLifetimeStats {
	stats := PlayerLifetimeStats{
		UserID:      p.ID,
		Username:    p.Username,
		GamesPlayed: len(entries),
	}

	sorted := make([]ScoreEntry, len(entries))
	copy(sorted, entries)
	SortNewestFirst(sorted)

	streakOpen := true
	for _, e := range sorted {
		stats.TotalScore += e.Score
		if e.Score > stats.BestScore {
			stats.BestScore = e.Score
		}
		won := e.Score >= WinningScore
		if won {
			stats.WinCount++
		}
		if streakOpen && won {
			stats.WinStreak++
		} else {
			streakOpen = false
		}
	}
	return stats
}

// BadgeIDs lists the ids of badges in order.
func BadgeIDs(badges []Badge) []BadgeID {
	ids := make([]BadgeID, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}
