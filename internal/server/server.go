package server

import (
	"context"
	"net/http"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
	"github.com/qianfeiqianlan/2048-clash/internal/broadcast"
	"github.com/qianfeiqianlan/2048-clash/internal/config"
	"github.com/qianfeiqianlan/2048-clash/internal/events"
	"github.com/qianfeiqianlan/2048-clash/internal/wshub"
)

// Store is the persistence the score service needs. Implemented by
// players.Store (memory) and db.DB (PostgreSQL).
type Store interface {
	CreatePlayer(ctx context.Context, p analytics.Player) (analytics.Player, error)
	PlayerByUsername(ctx context.Context, username string) (analytics.Player, error)
	PlayerByID(ctx context.Context, id string) (analytics.Player, error)
	SaveScore(ctx context.Context, e analytics.ScoreEntry) (analytics.Accepted, error)
	SaveScores(ctx context.Context, entries []analytics.ScoreEntry) ([]analytics.Accepted, error)
	ScoresByUser(ctx context.Context, userID string) ([]analytics.ScoreEntry, error)
	Leaderboard(ctx context.Context, limit int) ([]analytics.LeaderboardEntry, error)
	AwardBadge(ctx context.Context, userID string, badge analytics.BadgeID, scoreID string) error
	Badges(ctx context.Context, userID string) ([]analytics.BadgeID, error)
	Ping(ctx context.Context) error
}

const (
	maxBatchScores   = 1000
	maxLeaderboard   = 100
	maxRequestBodyMB = 4
)

type Server struct {
	Store       Store
	Bus         *events.Bus
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub

	secret          []byte
	tokenTTL        time.Duration
	leaderboardSize int
	metrics         *metrics
	now             func() time.Time
}

// New wires a server around store. The event bus is drained by a
// broadcaster that feeds both event-stream and websocket subscribers.
func New(store Store, cfg config.Config) *Server {
	bus := events.NewBus()
	hub := wshub.NewHub()
	size := cfg.LeaderboardSize
	if size <= 0 || size > maxLeaderboard {
		size = 10
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Server{
		Store:           store,
		Bus:             bus,
		Broadcaster:     broadcast.NewBroadcaster(bus, hub),
		Hub:             hub,
		secret:          []byte(cfg.JWTSecret),
		tokenTTL:        ttl,
		leaderboardSize: size,
		metrics:         newMetrics(),
		now:             time.Now,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/login", s.handleLogin)
	mux.HandleFunc("POST /score", s.requireAuth(s.handleUploadScore))
	mux.HandleFunc("POST /score/multiple", s.requireAuth(s.handleUploadScores))
	mux.HandleFunc("GET /score", s.requireAuth(s.handleUserScores))
	mux.HandleFunc("GET /score/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /score/stats", s.handleStats)
	mux.HandleFunc("GET /score/events", s.handleEvents)
	mux.HandleFunc("GET /score/live", s.handleLive)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())
	return mux
}
