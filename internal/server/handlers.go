package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
	"github.com/qianfeiqianlan/2048-clash/internal/events"
	"golang.org/x/crypto/bcrypt"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type envelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type scoreRequest struct {
	GameID    string `json:"gameId"`
	Score     *int   `json:"score"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

type scoreAck struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	GameID string `json:"gameId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] encode response: %v\n", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyMB<<20)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request data")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	player, err := s.authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		s.metrics.logins.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	case err != nil:
		log.Printf("[Server] login %s: %v\n", req.Username, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := s.issueToken(player)
	if err != nil {
		log.Printf("[Server] issue token: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.metrics.logins.WithLabelValues("ok").Inc()
	writeData(w, http.StatusOK, map[string]any{
		"userInfo": map[string]string{"id": player.ID, "username": player.Username},
		"token":    token,
	}, "login succeeded")
}

// authenticate checks the password of an existing player or registers a new
// one on first login.
func (s *Server) authenticate(ctx context.Context, username, password string) (analytics.Player, error) {
	player, err := s.Store.PlayerByUsername(ctx, username)
	if err == nil {
		return player, bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password))
	}
	if !errors.Is(err, analytics.ErrNotFound) {
		return analytics.Player{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return analytics.Player{}, fmt.Errorf("hashing password: %w", err)
	}
	created, err := s.Store.CreatePlayer(ctx, analytics.Player{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	})
	if errors.Is(err, analytics.ErrUsernameTaken) {
		// Lost a registration race; check against the winner.
		return s.authenticate(ctx, username, password)
	}
	if err != nil {
		return analytics.Player{}, err
	}
	log.Printf("[Server] registered player %s (%s)\n", created.Username, created.ID)
	return created, nil
}

// entry validates a submitted score and fills defaults.
func (s *Server) entry(userID string, req scoreRequest) (analytics.ScoreEntry, bool) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" || req.Score == nil || *req.Score < 0 {
		return analytics.ScoreEntry{}, false
	}
	now := s.now()
	ts := req.Timestamp
	if ts <= 0 {
		ts = now.UnixMilli()
	}
	date := req.Date
	if date == "" {
		date = time.UnixMilli(ts).UTC().Format(isoMillis)
	}
	return analytics.ScoreEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		GameID:    gameID,
		Score:     *req.Score,
		Timestamp: ts,
		Date:      date,
		CreatedAt: now.UnixMilli(),
	}, true
}

func (s *Server) handleUploadScore(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request data")
		return
	}
	e, ok := s.entry(user.ID, req)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid score data")
		return
	}

	acc, err := s.Store.SaveScore(r.Context(), e)
	if err != nil {
		log.Printf("[Server] save score %s/%s: %v\n", user.ID, e.GameID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.afterAccept(r.Context(), user, acc)

	status := http.StatusCreated
	if !acc.Created {
		status = http.StatusOK
	}
	writeData(w, status, ackOf(acc.Entry), "score uploaded")
}

func (s *Server) handleUploadScores(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	var req struct {
		Scores []scoreRequest `json:"scores"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request data")
		return
	}
	if len(req.Scores) == 0 {
		writeError(w, http.StatusBadRequest, "no scores submitted")
		return
	}
	if len(req.Scores) > maxBatchScores {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d scores per request", maxBatchScores))
		return
	}

	entries := make([]analytics.ScoreEntry, 0, len(req.Scores))
	for i, sr := range req.Scores {
		e, ok := s.entry(user.ID, sr)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid score data at index %d", i))
			return
		}
		entries = append(entries, e)
	}

	accepted, err := s.Store.SaveScores(r.Context(), entries)
	if err != nil {
		log.Printf("[Server] save %d scores for %s: %v\n", len(entries), user.ID, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	acks := make([]scoreAck, 0, len(accepted))
	for _, acc := range accepted {
		s.afterAccept(r.Context(), user, acc)
		acks = append(acks, ackOf(acc.Entry))
	}
	writeData(w, http.StatusOK, acks, fmt.Sprintf("%d scores uploaded", len(acks)))
}

// afterAccept counts the submission and, for a new score, awards badges and
// publishes it to live subscribers.
func (s *Server) afterAccept(ctx context.Context, user authUser, acc analytics.Accepted) {
	if !acc.Created {
		s.metrics.duplicates.Inc()
		return
	}
	s.metrics.accepted.Inc()
	s.awardBadges(ctx, acc.Entry)
	if !s.Bus.Publish(events.ScoreAccepted{Entry: acc.Entry, Username: user.Username}) {
		log.Println("[Server] event bus full, dropping live score")
	}
}

func (s *Server) awardBadges(ctx context.Context, e analytics.ScoreEntry) {
	for _, b := range analytics.EvaluateGameBadges(e) {
		if err := s.Store.AwardBadge(ctx, e.UserID, b.ID, e.ID); err != nil {
			log.Printf("[Server] AwardBadge error: %v\n", err)
		}
	}

	entries, err := s.Store.ScoresByUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[Server] ScoresByUser error: %v\n", err)
		return
	}
	stats := analytics.LifetimeStats(analytics.Player{ID: e.UserID}, entries)
	for _, b := range analytics.EvaluateLifetimeBadges(stats) {
		if err := s.Store.AwardBadge(ctx, e.UserID, b.ID, ""); err != nil {
			log.Printf("[Server] AwardBadge error: %v\n", err)
		}
	}
}

func ackOf(e analytics.ScoreEntry) scoreAck {
	return scoreAck{ID: e.ID, UserID: e.UserID, GameID: e.GameID}
}

func (s *Server) handleUserScores(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = user.ID
	}
	if userID != user.ID {
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}

	entries, err := s.Store.ScoresByUser(r.Context(), userID)
	if err != nil {
		log.Printf("[Server] ScoresByUser error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"scores": entries}, "")
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.leaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxLeaderboard)
		}
	}

	entries, err := s.Store.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Printf("[Server] leaderboard error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "error loading leaderboard")
		return
	}
	if entries == nil {
		entries = []analytics.LeaderboardEntry{}
	}
	writeData(w, http.StatusOK, entries, "")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	player, err := s.Store.PlayerByID(r.Context(), userID)
	if errors.Is(err, analytics.ErrNotFound) {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	if err != nil {
		log.Printf("[Server] player stats error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	entries, err := s.Store.ScoresByUser(r.Context(), userID)
	if err != nil {
		log.Printf("[Server] player stats error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	stats := analytics.LifetimeStats(player, entries)
	badges, err := s.Store.Badges(r.Context(), userID)
	if err != nil {
		log.Printf("[Server] Badges error: %v\n", err)
	}
	stats.Badges = badges
	if stats.Badges == nil {
		stats.Badges = []analytics.BadgeID{}
	}
	writeData(w, http.StatusOK, stats, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Data:  map[string]string{"status": "db_error"},
			Error: err.Error(),
		})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
