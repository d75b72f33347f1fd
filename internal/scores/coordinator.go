// Package scores reconciles the local ledger with the score service and
// derives the read views the game shows.
package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/identity"
	"github.com/qianfeiqianlan/2048-clash/internal/ledger"
	"github.com/qianfeiqianlan/2048-clash/internal/remote"
	"github.com/qianfeiqianlan/2048-clash/internal/utility"
)

var ErrNegativeScore = errors.New("score must be non-negative")

// MaxBatchUpload is the most records sent in one UploadMany call.
const MaxBatchUpload = 1000

// RemoteService is the part of the score service the coordinator talks to.
// UploadMany answers with one ack per submitted record, in submission order.
type RemoteService interface {
	UploadOne(ctx context.Context, rec ledger.Record) (ledger.Ack, error)
	UploadMany(ctx context.Context, recs []ledger.Record) ([]ledger.Ack, error)
	FetchAll(ctx context.Context, userID string) ([]ledger.ServerScore, error)
}

type Options struct {
	Now       func() time.Time
	NewGameID func(time.Time) string
}

type Coordinator struct {
	ledger *ledger.Ledger
	remote RemoteService
	auth   identity.Provider

	now       func() time.Time
	newGameID func(time.Time) string

	syncMu sync.Mutex
	synced bool
}

func New(l *ledger.Ledger, rs RemoteService, auth identity.Provider, opts Options) *Coordinator {
	if auth == nil {
		auth = identity.Anonymous{}
	}
	c := &Coordinator{
		ledger:    l,
		remote:    rs,
		auth:      auth,
		now:       opts.Now,
		newGameID: opts.NewGameID,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newGameID == nil {
		c.newGameID = utility.NewGameID
	}
	return c
}

type SaveOptions struct {
	GameID string
	// Timestamp in epoch milliseconds; zero means now.
	Timestamp int64
	// SkipUpload keeps the record out of the network path entirely.
	SkipUpload bool
}

type RetryResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RetriedCount int    `json:"retriedCount"`
	FailedCount  int    `json:"failedCount"`
}

type BatchResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	UploadedCount int    `json:"uploadedCount"`
}

type SyncResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SyncedCount int    `json:"syncedCount"`
}

// SaveScore records a finished game. The record is persisted before any
// network attempt; only that local write can fail the call.
func (c *Coordinator) SaveScore(ctx context.Context, score int, opts SaveOptions) (ledger.Record, error) {
	if score < 0 {
		return ledger.Record{}, ErrNegativeScore
	}
	now := c.now()
	ts := opts.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}
	gameID := opts.GameID
	if gameID == "" {
		gameID = c.newGameID(now)
	}

	rec := ledger.Record{
		GameID:    gameID,
		Score:     score,
		Timestamp: ts,
		Date:      ledger.FormatDate(ts),
		CreatedAt: now.UnixMilli(),
	}
	if err := c.ledger.Append(rec); err != nil {
		log.Printf("[Scores] saving game %s: %v\n", gameID, err)
		return ledger.Record{}, fmt.Errorf("%w: %w", ledger.ErrSaveFailed, err)
	}

	if opts.SkipUpload {
		return rec, nil
	}

	if !c.auth.IsAuthenticated() {
		rec.LocalOnly = true
		c.replace(rec)
		return rec, nil
	}

	ack, err := c.remote.UploadOne(ctx, rec)
	if err != nil {
		log.Printf("[Scores] upload of game %s failed: %v\n", gameID, err)
		rec = rec.Fail(remote.Message(err))
	} else {
		rec = rec.Confirm(ack.ID, ack.UserID, c.now())
	}
	c.replace(rec)
	return rec, nil
}

// replace updates a record after it is already durable. A failure here only
// loses the upload-state change, so it is logged rather than returned.
func (c *Coordinator) replace(rec ledger.Record) bool {
	if err := c.ledger.Replace(rec.GameID, rec); err != nil {
		log.Printf("[Scores] updating game %s: %v\n", rec.GameID, err)
		return false
	}
	return true
}

// GetAllScores returns the ledger newest first. The first read after a player
// is authenticated runs the session sync.
func (c *Coordinator) GetAllScores(ctx context.Context) []ledger.Record {
	c.maybeSync(ctx)
	return c.ledger.ReadAll()
}

func (c *Coordinator) GetScoreByGameID(ctx context.Context, gameID string) (ledger.Record, bool) {
	for _, r := range c.GetAllScores(ctx) {
		if r.GameID == gameID {
			return r, true
		}
	}
	return ledger.Record{}, false
}

func (c *Coordinator) DeleteScore(ctx context.Context, gameID string) bool {
	c.maybeSync(ctx)
	removed, err := c.ledger.Remove(gameID)
	if err != nil {
		log.Printf("[Scores] deleting game %s: %v\n", gameID, err)
		return false
	}
	return removed
}

func (c *Coordinator) ClearAllScores() bool {
	if err := c.ledger.Clear(); err != nil {
		log.Printf("[Scores] clearing scores: %v\n", err)
		return false
	}
	return true
}

// ResetSyncState re-arms the session sync so the next read runs it again.
func (c *Coordinator) ResetSyncState() {
	c.syncMu.Lock()
	c.synced = false
	c.syncMu.Unlock()
}

// Synced reports whether the session sync has completed.
func (c *Coordinator) Synced() bool {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.synced
}

func (c *Coordinator) maybeSync(ctx context.Context) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	if c.synced || !c.auth.IsAuthenticated() {
		return
	}
	u, ok := c.auth.CurrentIdentity()
	if !ok || u.ID == "" {
		log.Println("[Scores] no user id, skipping sync")
		return
	}
	if err := c.sessionSync(ctx, u); err != nil {
		log.Printf("[Scores] session sync failed, will retry on next read: %v\n", err)
		return
	}
	c.synced = true
}

// sessionSync uploads whatever is pending for this install, then replaces the
// player's ledger with the service's list. Records still waiting in the
// anonymous ledger leave it only once the service has acknowledged them.
func (c *Coordinator) sessionSync(ctx context.Context, u identity.User) error {
	userKey := c.ledger.Key()
	anonKey := c.ledger.AnonymousKey()

	// Failed records ride along too; the overwrite below would drop them.
	var pending []ledger.Record
	seen := make(map[string]bool)
	for _, key := range []string{userKey, anonKey} {
		for _, r := range c.ledger.ReadAllAt(key) {
			if !r.Confirmed() && !seen[r.GameID] {
				seen[r.GameID] = true
				pending = append(pending, r)
			}
		}
	}

	uploaded := map[string]ledger.Ack{}
	if len(pending) > 0 {
		log.Printf("[Scores] uploading %d local scores before sync\n", len(pending))
	}
	for start := 0; start < len(pending); start += MaxBatchUpload {
		chunk := pending[start:min(start+MaxBatchUpload, len(pending))]
		acks, err := c.remote.UploadMany(ctx, chunk)
		if err != nil {
			log.Printf("[Scores] batch upload during sync failed: %v\n", err)
			continue
		}
		for gameID, ack := range correlate(chunk, acks) {
			uploaded[gameID] = ack
		}
	}

	serverScores, err := c.remote.FetchAll(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("fetching scores: %w", err)
	}

	now := c.now()
	records := make([]ledger.Record, 0, len(serverScores))
	for _, s := range serverScores {
		records = append(records, s.Record(now))
	}
	if err := c.ledger.Overwrite(records); err != nil {
		return fmt.Errorf("overwriting ledger: %w", err)
	}

	if anonKey != userKey && len(uploaded) > 0 {
		done := make(map[string]bool, len(uploaded))
		for gameID := range uploaded {
			done[gameID] = true
		}
		if _, err := c.ledger.RemoveAt(anonKey, done); err != nil {
			log.Printf("[Scores] pruning anonymous ledger: %v\n", err)
		}
	}

	log.Printf("[Scores] synced %d scores from server\n", len(records))
	return nil
}

// RetryFailedUploads re-sends every failed, unconfirmed record one by one.
// Records whose failure reason did not change are not rewritten.
func (c *Coordinator) RetryFailedUploads(ctx context.Context) RetryResult {
	if !c.auth.IsAuthenticated() {
		return RetryResult{Message: "please log in before retrying uploads"}
	}

	var failed []ledger.Record
	for _, r := range c.GetAllScores(ctx) {
		if r.State() == ledger.StateFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return RetryResult{Success: true, Message: "no scores need retrying"}
	}

	log.Printf("[Scores] retrying %d failed uploads\n", len(failed))
	var succeeded, failCount int
	for _, r := range failed {
		ack, err := c.remote.UploadOne(ctx, r)
		if err != nil {
			failCount++
			log.Printf("[Scores] retry of game %s failed: %v\n", r.GameID, err)
			if msg := remote.Message(err); msg != r.UploadError {
				c.replace(r.Fail(msg))
			}
			continue
		}
		c.replace(r.Confirm(ack.ID, ack.UserID, c.now()))
		succeeded++
	}

	return RetryResult{
		Success:      failCount == 0,
		Message:      fmt.Sprintf("retry finished: %d succeeded, %d failed", succeeded, failCount),
		RetriedCount: succeeded,
		FailedCount:  failCount,
	}
}

// BatchUploadScores uploads every local-only or never-attempted record of
// records, or of the ledger when records is nil, in a single request.
func (c *Coordinator) BatchUploadScores(ctx context.Context, records []ledger.Record) BatchResult {
	if !c.auth.IsAuthenticated() {
		return BatchResult{Message: "please log in before uploading scores"}
	}
	if records == nil {
		records = c.GetAllScores(ctx)
	}

	var pending []ledger.Record
	for _, r := range records {
		if r.Pending() {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return BatchResult{Success: true, Message: "no scores need uploading"}
	}

	acks, err := c.remote.UploadMany(ctx, pending)
	if err != nil {
		log.Printf("[Scores] batch upload failed: %v\n", err)
		return BatchResult{Message: remote.Message(err)}
	}

	matched := correlate(pending, acks)
	now := c.now()
	for _, r := range pending {
		ack, ok := matched[r.GameID]
		if !ok {
			continue
		}
		c.replace(r.Confirm(ack.ID, ack.UserID, now))
	}

	log.Printf("[Scores] batch uploaded %d scores\n", len(matched))
	return BatchResult{
		Success:       true,
		Message:       fmt.Sprintf("batch upload succeeded: %d scores", len(matched)),
		UploadedCount: len(matched),
	}
}

// correlate maps acks to the submitted records by game id. An ack without a
// game id is matched by its position in the response.
func correlate(submitted []ledger.Record, acks []ledger.Ack) map[string]ledger.Ack {
	known := make(map[string]bool, len(submitted))
	for _, r := range submitted {
		known[r.GameID] = true
	}
	matched := make(map[string]ledger.Ack, len(acks))
	for i, ack := range acks {
		if ack.ID == "" {
			continue
		}
		gameID := ack.GameID
		if gameID == "" {
			if i >= len(submitted) {
				continue
			}
			gameID = submitted[i].GameID
		}
		if known[gameID] {
			matched[gameID] = ack
		}
	}
	return matched
}

// MergeFromServer adds the service's records for userID that the ledger does
// not know yet. Unlike the session sync it never drops local records.
func (c *Coordinator) MergeFromServer(ctx context.Context, userID string) SyncResult {
	if !c.auth.IsAuthenticated() {
		return SyncResult{Message: "please log in before syncing scores"}
	}
	if userID == "" {
		if u, ok := c.auth.CurrentIdentity(); ok {
			userID = u.ID
		}
	}

	serverScores, err := c.remote.FetchAll(ctx, userID)
	if err != nil {
		return SyncResult{Message: remote.Message(err)}
	}

	local := c.GetAllScores(ctx)
	byServerID := make(map[string]bool, len(local))
	byGameID := make(map[string]ledger.Record, len(local))
	for _, r := range local {
		if r.ServerID != "" {
			byServerID[r.ServerID] = true
		}
		byGameID[r.GameID] = r
	}

	now := c.now()
	added := 0
	// oldest first so the newest server record ends up on top
	for i := len(serverScores) - 1; i >= 0; i-- {
		s := serverScores[i]
		if byServerID[s.ID] {
			continue
		}
		if existing, ok := byGameID[s.GameID]; ok {
			if !existing.Confirmed() && existing.Score == s.Score {
				c.replace(existing.Confirm(s.ID, s.UserID, now))
			}
			continue
		}
		if err := c.ledger.Append(s.Record(now)); err != nil {
			log.Printf("[Scores] merging game %s: %v\n", s.GameID, err)
			return SyncResult{Message: "failed to save merged scores", SyncedCount: added}
		}
		byGameID[s.GameID] = s.Record(now)
		added++
	}

	return SyncResult{
		Success:     true,
		Message:     fmt.Sprintf("sync finished: added %d scores from server", added),
		SyncedCount: added,
	}
}

type exportFile struct {
	ExportTime   string          `json:"exportTime"`
	TotalRecords int             `json:"totalRecords"`
	Scores       []ledger.Record `json:"scores"`
}

// ExportData renders the ledger as an indented JSON document.
func (c *Coordinator) ExportData(ctx context.Context) (string, error) {
	records := c.GetAllScores(ctx)
	raw, err := json.MarshalIndent(exportFile{
		ExportTime:   ledger.FormatDate(c.now().UnixMilli()),
		TotalRecords: len(records),
		Scores:       records,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}
	return string(raw), nil
}

// Import replaces the ledger with the scores of an exported document. Nothing
// is written unless every record is valid.
func (c *Coordinator) Import(data []byte) error {
	var doc struct {
		Scores json.RawMessage `json:"scores"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ledger.ValidationError{Index: -1, Reason: "not a JSON object"}
	}
	if len(doc.Scores) == 0 || doc.Scores[0] != '[' {
		return &ledger.ValidationError{Index: -1, Reason: "scores must be an array"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(doc.Scores, &items); err != nil {
		return &ledger.ValidationError{Index: -1, Reason: "scores must be an array"}
	}
	records := make([]ledger.Record, 0, len(items))
	for i, item := range items {
		var r ledger.Record
		if err := json.Unmarshal(item, &r); err != nil {
			return &ledger.ValidationError{Index: i, Reason: err.Error()}
		}
		records = append(records, r)
	}
	return c.ledger.ImportAll(records)
}

func (c *Coordinator) ImportData(data string) bool {
	if err := c.Import([]byte(data)); err != nil {
		log.Printf("[Scores] import rejected: %v\n", err)
		return false
	}
	return true
}
