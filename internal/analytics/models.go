package analytics

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ScoreEntry is one accepted score. (UserID, GameID) is unique.
type ScoreEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	GameID    string `json:"gameId"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
	CreatedAt int64  `json:"createdAt"`
}

// Accepted is the outcome of storing a score. Created is false when the
// player had already submitted the same game.
type Accepted struct {
	Entry   ScoreEntry
	Created bool
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	GameID   string `json:"gameId"`
	Date     string `json:"date"`

	timestamp int64
}

type PlayerLifetimeStats struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	GamesPlayed int       `json:"gamesPlayed"`
	TotalScore  int       `json:"totalScore"`
	BestScore   int       `json:"bestScore"`
	WinCount    int       `json:"winCount"`
	WinStreak   int       `json:"winStreak"`
	Badges      []BadgeID `json:"badges"`
}
