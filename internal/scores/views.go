package scores

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
)

// WinningTile is the score a game must reach to count as a win.
const WinningTile = 2048

type Statistics struct {
	TotalGames   int `json:"totalGames"`
	BestScore    int `json:"bestScore"`
	LowestScore  int `json:"lowestScore"`
	AverageScore int `json:"averageScore"`
	TotalScore   int `json:"totalScore"`
	WinCount     int `json:"winCount"`
	// WinRate is a whole percentage.
	WinRate int `json:"winRate"`
}

func (c *Coordinator) GetRecentScores(ctx context.Context, n int) []ledger.Record {
	return Recent(c.GetAllScores(ctx), n)
}

func (c *Coordinator) GetTopScores(ctx context.Context, n int) []ledger.Record {
	return Top(c.GetAllScores(ctx), n)
}

func (c *Coordinator) GetStatistics(ctx context.Context) Statistics {
	return Compute(c.GetAllScores(ctx))
}

// GetScoresByDateRange returns records with a timestamp in [start, end).
func (c *Coordinator) GetScoresByDateRange(ctx context.Context, start, end time.Time) []ledger.Record {
	return Between(c.GetAllScores(ctx), start, end)
}

// GetTodayScores covers the current local calendar day.
func (c *Coordinator) GetTodayScores(ctx context.Context) []ledger.Record {
	start := startOfDay(c.now())
	return c.GetScoresByDateRange(ctx, start, start.AddDate(0, 0, 1))
}

// GetThisWeekScores covers the current week, starting on Sunday.
func (c *Coordinator) GetThisWeekScores(ctx context.Context) []ledger.Record {
	today := startOfDay(c.now())
	start := today.AddDate(0, 0, -int(today.Weekday()))
	return c.GetScoresByDateRange(ctx, start, start.AddDate(0, 0, 7))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Recent returns the first n records in ledger order.
func Recent(records []ledger.Record, n int) []ledger.Record {
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]ledger.Record, n)
	copy(out, records[:n])
	return out
}

// Top returns the n highest scores. Equal scores keep their ledger order.
func Top(records []ledger.Record, n int) []ledger.Record {
	sorted := make([]ledger.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return Recent(sorted, n)
}

func Between(records []ledger.Record, start, end time.Time) []ledger.Record {
	from, to := start.UnixMilli(), end.UnixMilli()
	out := []ledger.Record{}
	for _, r := range records {
		if r.Timestamp >= from && r.Timestamp < to {
			out = append(out, r)
		}
	}
	return out
}

// Compute derives the summary statistics. Averages and rates round half up.
func Compute(records []ledger.Record) Statistics {
	if len(records) == 0 {
		return Statistics{}
	}
	s := Statistics{
		TotalGames:  len(records),
		BestScore:   records[0].Score,
		LowestScore: records[0].Score,
	}
	for _, r := range records {
		s.TotalScore += r.Score
		if r.Score > s.BestScore {
			s.BestScore = r.Score
		}
		if r.Score < s.LowestScore {
			s.LowestScore = r.Score
		}
		if r.Score >= WinningTile {
			s.WinCount++
		}
	}
	n := float64(len(records))
	s.AverageScore = int(math.Floor(float64(s.TotalScore)/n + 0.5))
	s.WinRate = int(math.Floor(float64(s.WinCount)*100/n + 0.5))
	return s
}
