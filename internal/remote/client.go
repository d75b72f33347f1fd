// Package remote is the HTTP client of the score service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/identity"
	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
)

const (
	pathLogin       = "/user/login"
	pathHealth      = "/health"
	pathScore       = "/score"
	pathScores      = "/score/multiple"
	pathLeaderboard = "/score/leaderboard"
	pathStats       = "/score/stats"
	pathLive        = "/score/live"

	msgNetwork  = "network connection failed, please check your network settings"
	msgLogin    = "please log in before uploading scores"
	msgBadScore = "invalid score data"
)

// Credentials is the session the client reads tokens from and clears on 401.
type Credentials interface {
	Token() string
	IsAuthenticated() bool
	Save(token string, u *identity.User) error
	Clear()
}

type Client struct {
	baseURL string
	http    *http.Client
	session Credentials
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration, session Credentials) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: session,
		now:     time.Now,
	}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type scorePayload struct {
	GameID    string `json:"gameId"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

type loginData struct {
	UserInfo *identity.User `json:"userInfo"`
	Token    string         `json:"token"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	GameID   string `json:"gameId"`
	Date     string `json:"date"`
}

type PlayerStats struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	GamesPlayed int      `json:"gamesPlayed"`
	TotalScore  int      `json:"totalScore"`
	BestScore   int      `json:"bestScore"`
	WinCount    int      `json:"winCount"`
	Badges      []string `json:"badges"`
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, username, password string) (identity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return identity.User{}, &Error{Kind: KindRejected, Message: "username and password are required"}
	}

	var data loginData
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, pathLogin, nil, body, &data); err != nil {
		return identity.User{}, err
	}
	if data.UserInfo == nil || data.Token == "" {
		return identity.User{}, &Error{Kind: KindRejected, Message: "login response format error"}
	}
	if err := c.session.Save(data.Token, data.UserInfo); err != nil {
		return identity.User{}, fmt.Errorf("saving session: %w", err)
	}
	return *data.UserInfo, nil
}

func (c *Client) Logout() {
	c.session.Clear()
}

// UploadOne submits a single score.
func (c *Client) UploadOne(ctx context.Context, rec ledger.Record) (ledger.Ack, error) {
	if !c.session.IsAuthenticated() {
		return ledger.Ack{}, &Error{Kind: KindUnauthorized, Message: msgLogin}
	}
	if rec.GameID == "" || rec.Score < 0 {
		return ledger.Ack{}, &Error{Kind: KindRejected, Message: msgBadScore}
	}

	var ack ledger.Ack
	if err := c.do(ctx, "score upload", http.MethodPost, pathScore, nil, c.payload(rec), &ack); err != nil {
		return ledger.Ack{}, err
	}
	if ack.ID == "" {
		return ledger.Ack{}, &Error{Kind: KindRejected, Message: "score upload response format error"}
	}
	return ack, nil
}

// UploadMany submits scores in one request. The service answers with one ack
// per submitted score, in submission order.
func (c *Client) UploadMany(ctx context.Context, recs []ledger.Record) ([]ledger.Ack, error) {
	if !c.session.IsAuthenticated() {
		return nil, &Error{Kind: KindUnauthorized, Message: msgLogin}
	}
	if len(recs) == 0 {
		return nil, &Error{Kind: KindRejected, Message: msgBadScore}
	}

	payload := struct {
		Scores []scorePayload `json:"scores"`
	}{Scores: make([]scorePayload, 0, len(recs))}
	for _, r := range recs {
		payload.Scores = append(payload.Scores, c.payload(r))
	}

	var acks []ledger.Ack
	if err := c.do(ctx, "batch score upload", http.MethodPost, pathScores, nil, payload, &acks); err != nil {
		return nil, err
	}
	return acks, nil
}

// FetchAll returns every score the service holds for userID.
func (c *Client) FetchAll(ctx context.Context, userID string) ([]ledger.ServerScore, error) {
	if !c.session.IsAuthenticated() {
		return nil, &Error{Kind: KindUnauthorized, Message: "please log in before fetching scores"}
	}

	var data struct {
		Scores []ledger.ServerScore `json:"scores"`
	}
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, "fetch scores", http.MethodGet, pathScore, q, nil, &data); err != nil {
		return nil, err
	}
	if data.Scores == nil {
		data.Scores = []ledger.ServerScore{}
	}
	return data.Scores, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var entries []LeaderboardEntry
	if err := c.do(ctx, "leaderboard", http.MethodGet, pathLeaderboard, q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) Stats(ctx context.Context, userID string) (PlayerStats, error) {
	var stats PlayerStats
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, "player stats", http.MethodGet, pathStats, q, nil, &stats); err != nil {
		return PlayerStats{}, err
	}
	return stats, nil
}

// Ping checks that the service answers.
func (c *Client) Ping(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	return c.do(ctx, "connection test", http.MethodGet, pathHealth, nil, nil, &status)
}

func (c *Client) payload(r ledger.Record) scorePayload {
	p := scorePayload{GameID: r.GameID, Score: r.Score, Timestamp: r.Timestamp, Date: r.Date}
	if p.Timestamp == 0 {
		p.Timestamp = c.now().UnixMilli()
	}
	if p.Date == "" {
		p.Date = c.now().UTC().Format("2006-01-02")
	}
	return p
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRejected, Message: op + " failed", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: op + " failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[Remote] %s %s failed: %v\n", method, path, err)
		return &Error{Kind: KindUnavailable, Message: msgNetwork, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env)

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear()
		log.Printf("[Remote] %s unauthorized, cleared local session\n", op)
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: statusMessage(op, resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := statusMessage(op, resp.StatusCode)
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		log.Printf("[Remote] %s returned %d: %s\n", op, resp.StatusCode, msg)
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: op + " response format error", Err: decodeErr}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindRejected, Status: resp.StatusCode, Message: op + " response format error", Err: err}
	}
	return nil
}
