package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/qianfeiqianlan/2048-clash/internal/config"
	"github.com/qianfeiqianlan/2048-clash/internal/identity"
	"github.com/qianfeiqianlan/2048-clash/internal/kv"
	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
	"github.com/qianfeiqianlan/2048-clash/internal/players"
	"github.com/qianfeiqianlan/2048-clash/internal/remote"
	"github.com/qianfeiqianlan/2048-clash/internal/wshub"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *players.Store) {
	t.Helper()
	store := players.NewStore()
	srv := New(store, config.Config{
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
		LeaderboardSize: 10,
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts, store
}

type response struct {
	Status  int             `json:"-"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func call(t *testing.T, method, url, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decoding body: %v", method, url, err)
	}
	out.Status = resp.StatusCode
	return out
}

// login returns the token and player id for username.
func login(t *testing.T, baseURL, username, password string) (string, string) {
	t.Helper()
	resp := call(t, http.MethodPost, baseURL+"/user/login", "", loginRequest{Username: username, Password: password})
	if resp.Status != http.StatusOK {
		t.Fatalf("login status = %d, want %d (%s)", resp.Status, http.StatusOK, resp.Error)
	}
	var data struct {
		UserInfo identity.User `json:"userInfo"`
		Token    string        `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Token == "" || data.UserInfo.ID == "" {
		t.Fatalf("login data = %s, want token and user id", resp.Data)
	}
	return data.Token, data.UserInfo.ID
}

func score(gameID string, s int) map[string]any {
	return map[string]any{"gameId": gameID, "score": s, "timestamp": 1710428966000}
}

func TestHandleLogin_CreatesAccount(t *testing.T) {
	_, ts, store := newTestServer(t)

	login(t, ts.URL, "alice", "pw")
	if store.Count() != 1 {
		t.Errorf("players = %d, want 1", store.Count())
	}

	// Second login reuses the account.
	login(t, ts.URL, "Alice", "pw")
	if store.Count() != 1 {
		t.Errorf("players after relogin = %d, want 1", store.Count())
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	_, ts, _ := newTestServer(t)
	login(t, ts.URL, "alice", "pw")

	resp := call(t, http.MethodPost, ts.URL+"/user/login", "", loginRequest{Username: "alice", Password: "nope"})
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusUnauthorized)
	}
	if resp.Error != "invalid username or password" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestHandleLogin_MissingFields(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp := call(t, http.MethodPost, ts.URL+"/user/login", "", loginRequest{Username: "  "})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusBadRequest)
	}
}

func TestUploadScore_RequiresAuth(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := call(t, http.MethodPost, ts.URL+"/score", "", score("g1", 10))
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusUnauthorized)
	}
	resp = call(t, http.MethodPost, ts.URL+"/score", "garbage", score("g1", 10))
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("status with bad token = %d, want %d", resp.Status, http.StatusUnauthorized)
	}
}

func TestUploadScore_ExpiredToken(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	srv.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _ := login(t, ts.URL, "alice", "pw")
	srv.now = time.Now

	resp := call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 10))
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusUnauthorized)
	}
}

func TestUploadScore_Idempotent(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, userID := login(t, ts.URL, "alice", "pw")

	first := call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 512))
	if first.Status != http.StatusCreated {
		t.Fatalf("first status = %d, want %d", first.Status, http.StatusCreated)
	}
	second := call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 512))
	if second.Status != http.StatusOK {
		t.Fatalf("second status = %d, want %d", second.Status, http.StatusOK)
	}

	var a, b scoreAck
	json.Unmarshal(first.Data, &a)
	json.Unmarshal(second.Data, &b)
	if a.ID == "" || a.ID != b.ID {
		t.Errorf("ack ids = %q, %q, want the same non-empty id", a.ID, b.ID)
	}
	if a.UserID != userID || a.GameID != "g1" {
		t.Errorf("ack = %+v", a)
	}
}

func TestUploadScore_Invalid(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, _ := login(t, ts.URL, "alice", "pw")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"negative score", score("g1", -1)},
		{"missing game id", score("", 5)},
		{"missing score", map[string]any{"gameId": "g1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, http.MethodPost, ts.URL+"/score", token, tt.body)
			if resp.Status != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.Status, http.StatusBadRequest)
			}
		})
	}
}

func TestUploadScores_AcksInOrder(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, _ := login(t, ts.URL, "alice", "pw")
	call(t, http.MethodPost, ts.URL+"/score", token, score("g2", 20))

	body := map[string]any{"scores": []map[string]any{score("g1", 10), score("g2", 20), score("g3", 30)}}
	resp := call(t, http.MethodPost, ts.URL+"/score/multiple", token, body)
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", resp.Status, http.StatusOK, resp.Error)
	}

	var acks []scoreAck
	if err := json.Unmarshal(resp.Data, &acks); err != nil {
		t.Fatal(err)
	}
	want := []string{"g1", "g2", "g3"}
	if len(acks) != len(want) {
		t.Fatalf("acks = %d, want %d", len(acks), len(want))
	}
	for i, id := range want {
		if acks[i].GameID != id {
			t.Errorf("acks[%d].GameID = %q, want %q", i, acks[i].GameID, id)
		}
	}
}

func TestUploadScores_RejectsWholeBatch(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, userID := login(t, ts.URL, "alice", "pw")

	body := map[string]any{"scores": []map[string]any{score("g1", 10), score("g2", -5)}}
	resp := call(t, http.MethodPost, ts.URL+"/score/multiple", token, body)
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Status, http.StatusBadRequest)
	}

	list := call(t, http.MethodGet, ts.URL+"/score?userId="+userID, token, nil)
	var data struct {
		Scores []ledger.ServerScore `json:"scores"`
	}
	json.Unmarshal(list.Data, &data)
	if len(data.Scores) != 0 {
		t.Errorf("stored scores = %d, want 0", len(data.Scores))
	}
}

func TestUserScores_OtherPlayerForbidden(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, _ := login(t, ts.URL, "alice", "pw")
	_, bobID := login(t, ts.URL, "bob", "pw")

	resp := call(t, http.MethodGet, ts.URL+"/score?userId="+bobID, token, nil)
	if resp.Status != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusForbidden)
	}
}

func TestLeaderboard(t *testing.T) {
	_, ts, _ := newTestServer(t)
	alice, _ := login(t, ts.URL, "alice", "pw")
	bob, _ := login(t, ts.URL, "bob", "pw")
	call(t, http.MethodPost, ts.URL+"/score", alice, score("a1", 100))
	call(t, http.MethodPost, ts.URL+"/score", alice, score("a2", 4096))
	call(t, http.MethodPost, ts.URL+"/score", bob, score("b1", 2048))

	resp := call(t, http.MethodGet, ts.URL+"/score/leaderboard?limit=5", "", nil)
	var entries []remote.LeaderboardEntry
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].Score != 4096 || entries[0].Rank != 1 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Username != "bob" || entries[1].Rank != 2 {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestLeaderboard_EmptyIsArray(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp := call(t, http.MethodGet, ts.URL+"/score/leaderboard", "", nil)
	if string(resp.Data) != "[]" {
		t.Errorf("data = %s, want []", resp.Data)
	}
}

func TestStats(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, userID := login(t, ts.URL, "alice", "pw")
	call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 4096))
	call(t, http.MethodPost, ts.URL+"/score", token, score("g2", 16))

	resp := call(t, http.MethodGet, ts.URL+"/score/stats?userId="+userID, "", nil)
	var stats remote.PlayerStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 2 || stats.BestScore != 4096 || stats.WinCount != 1 || stats.TotalScore != 4112 {
		t.Errorf("stats = %+v", stats)
	}
	has := map[string]bool{}
	for _, b := range stats.Badges {
		has[b] = true
	}
	if !has["winner"] || !has["overachiever"] {
		t.Errorf("badges = %v, want winner and overachiever", stats.Badges)
	}
}

func TestStats_UnknownPlayer(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp := call(t, http.MethodGet, ts.URL+"/score/stats?userId=nobody", "", nil)
	if resp.Status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusNotFound)
	}
}

func TestHealth(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp := call(t, http.MethodGet, ts.URL+"/health", "", nil)
	if resp.Status != http.StatusOK || string(resp.Data) != `{"status":"ok"}` {
		t.Errorf("health = %d %s", resp.Status, resp.Data)
	}
}

func TestMetrics(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, _ := login(t, ts.URL, "alice", "pw")
	call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 8))
	call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 8))

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"game2048_scores_accepted_total 1",
		"game2048_scores_duplicate_total 1",
		`game2048_logins_total{result="ok"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestEvents_StreamsAcceptedScores(t *testing.T) {
	_, ts, _ := newTestServer(t)
	token, _ := login(t, ts.URL, "alice", "pw")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/score/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 2048))

	scanner := bufio.NewScanner(resp.Body)
	var gotEvent, gotData bool
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: score" {
			gotEvent = true
		}
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"gameId":"g1"`) {
			gotData = true
			break
		}
	}
	if !gotEvent || !gotData {
		t.Errorf("event = %v, data = %v, want both", gotEvent, gotData)
	}
}

func TestLive_PushesAcceptedScores(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	token, _ := login(t, ts.URL, "alice", "pw")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/score/live", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()

	for srv.Hub.Count() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("client never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	call(t, http.MethodPost, ts.URL+"/score", token, score("g1", 1024))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var msg wshub.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "score" || msg.Username != "alice" || msg.Score != 1024 {
		t.Errorf("message = %+v", msg)
	}
}

func TestRemoteClientRoundTrip(t *testing.T) {
	_, ts, _ := newTestServer(t)
	ctx := context.Background()

	session := identity.NewSession(kv.NewMemory())
	client := remote.NewClient(ts.URL, 5*time.Second, session)

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	user, err := client.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !session.IsAuthenticated() {
		t.Fatal("session not authenticated after login")
	}

	rec := ledger.Record{GameID: "g1", Score: 256, Timestamp: 1710428966000, Date: "2024-03-14T15:09:26.000Z"}
	ack, err := client.UploadOne(ctx, rec)
	if err != nil {
		t.Fatalf("UploadOne: %v", err)
	}
	if ack.GameID != "g1" || ack.UserID != user.ID {
		t.Errorf("ack = %+v", ack)
	}

	acks, err := client.UploadMany(ctx, []ledger.Record{
		{GameID: "g2", Score: 512, Timestamp: 1710428967000},
		rec,
	})
	if err != nil {
		t.Fatalf("UploadMany: %v", err)
	}
	if len(acks) != 2 || acks[1].ID != ack.ID {
		t.Errorf("acks = %+v, want the re-submitted game to keep id %s", acks, ack.ID)
	}

	scores, err := client.FetchAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(scores) != 2 || scores[0].GameID != "g2" {
		t.Errorf("scores = %+v, want 2 newest first", scores)
	}

	stats, err := client.Stats(ctx, user.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.GamesPlayed != 2 || stats.BestScore != 512 {
		t.Errorf("stats = %+v", stats)
	}
}
