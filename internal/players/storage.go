// Package players is the in-memory score service store, used when no
// database is configured.
package players

import (
	"context"
	"strings"
	"sync"

	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
)

type Store struct {
	mu      sync.Mutex
	players map[string]analytics.Player
	byName  map[string]string
	scores  []analytics.ScoreEntry
	byGame  map[string]int
	badges  map[string][]analytics.BadgeID
}

func NewStore() *Store {
	return &Store{
		players: make(map[string]analytics.Player),
		byName:  make(map[string]string),
		byGame:  make(map[string]int),
		badges:  make(map[string][]analytics.BadgeID),
	}
}

func nameKey(username string) string {
	return strings.ToLower(username)
}

func gameKey(userID, gameID string) string {
	return userID + "\x00" + gameID
}

func (s *Store) CreatePlayer(_ context.Context, p analytics.Player) (analytics.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[nameKey(p.Username)]; taken {
		return analytics.Player{}, analytics.ErrUsernameTaken
	}
	s.players[p.ID] = p
	s.byName[nameKey(p.Username)] = p.ID
	return p, nil
}

func (s *Store) PlayerByUsername(_ context.Context, username string) (analytics.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[nameKey(username)]
	if !ok {
		return analytics.Player{}, analytics.ErrNotFound
	}
	return s.players[id], nil
}

func (s *Store) PlayerByID(_ context.Context, id string) (analytics.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return analytics.Player{}, analytics.ErrNotFound
	}
	return p, nil
}

// SaveScore stores e unless the player already submitted the same game, in
// which case the stored entry is returned.
func (s *Store) SaveScore(_ context.Context, e analytics.ScoreEntry) (analytics.Accepted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(e), nil
}

// SaveScores stores a batch; results follow the order of entries.
func (s *Store) SaveScores(_ context.Context, entries []analytics.ScoreEntry) ([]analytics.Accepted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]analytics.Accepted, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.save(e))
	}
	return out, nil
}

func (s *Store) save(e analytics.ScoreEntry) analytics.Accepted {
	key := gameKey(e.UserID, e.GameID)
	if idx, ok := s.byGame[key]; ok {
		return analytics.Accepted{Entry: s.scores[idx]}
	}
	s.byGame[key] = len(s.scores)
	s.scores = append(s.scores, e)
	return analytics.Accepted{Entry: e, Created: true}
}

// ScoresByUser returns the player's scores, newest first.
func (s *Store) ScoresByUser(_ context.Context, userID string) ([]analytics.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []analytics.ScoreEntry{}
	for _, e := range s.scores {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	analytics.SortNewestFirst(out)
	return out, nil
}

func (s *Store) Leaderboard(_ context.Context, limit int) ([]analytics.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]string, len(s.players))
	for id, p := range s.players {
		names[id] = p.Username
	}
	return analytics.RankLeaderboard(s.scores, names, limit), nil
}

func (s *Store) AwardBadge(_ context.Context, userID string, badge analytics.BadgeID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.badges[userID] {
		if b == badge {
			return nil
		}
	}
	s.badges[userID] = append(s.badges[userID], badge)
	return nil
}

func (s *Store) Badges(_ context.Context, userID string) ([]analytics.BadgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]analytics.BadgeID, len(s.badges[userID]))
	copy(out, s.badges[userID])
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}
