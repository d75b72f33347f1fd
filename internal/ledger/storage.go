// Package ledger is the local score ledger: the newest-first list of finished
// games kept in client storage under a key scoped to the install and, when
// logged in, to the player.
package ledger

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/qianfeiqianlan/2048-clash/internal/identity"
	"github.com/qianfeiqianlan/2048-clash/internal/kv"
)

const (
	BaseStorageKey = "game2048_scores"
	// MaxRecords caps the ledger; older records are dropped on append.
	MaxRecords = 1000
)

type Ledger struct {
	mu        sync.Mutex
	store     kv.Store
	browserID string
	auth      identity.Provider
}

// New returns a ledger over store for the given install.
func New(store kv.Store, browserID string, auth identity.Provider) *Ledger {
	if auth == nil {
		auth = identity.Anonymous{}
	}
	return &Ledger{
		store:     store,
		browserID: browserID,
		auth:      auth,
	}
}

// Key is the storage key for the current identity. Switching identity
// switches the ledger being addressed.
func (l *Ledger) Key() string {
	if l.auth.IsAuthenticated() {
		if u, ok := l.auth.CurrentIdentity(); ok && u.Username != "" && u.ID != "" {
			return BaseStorageKey + "_" + u.Username + "_" + u.ID + "_" + l.browserID
		}
	}
	return l.AnonymousKey()
}

// AnonymousKey is the key used while nobody is logged in.
func (l *Ledger) AnonymousKey() string {
	return BaseStorageKey + "_" + l.browserID
}

// Append inserts rec at the front, replacing any record with the same game id.
func (l *Ledger) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := l.Key()
	records := l.read(key)

	updated := make([]Record, 0, len(records)+1)
	updated = append(updated, rec)
	for _, r := range records {
		if r.GameID != rec.GameID {
			updated = append(updated, r)
		}
	}
	return l.write("append", key, updated)
}

// Replace swaps the record with the same game id in place. A missing game id
// is logged and ignored. A confirmed record is never replaced by an
// unconfirmed one, and the stored score is kept.
func (l *Ledger) Replace(gameID string, updated Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := l.Key()
	records := l.read(key)

	idx := indexOf(records, gameID)
	if idx < 0 {
		log.Printf("[Ledger] replace: game %s not found under %s\n", gameID, key)
		return nil
	}
	current := records[idx]
	if current.Confirmed() && !updated.Confirmed() {
		log.Printf("[Ledger] replace: refusing to unconfirm game %s\n", gameID)
		return nil
	}
	if updated.Score != current.Score {
		log.Printf("[Ledger] replace: keeping original score %d for game %s\n", current.Score, gameID)
		updated.Score = current.Score
	}
	updated.GameID = current.GameID
	records[idx] = updated
	return l.write("replace", key, records)
}

// ReadAll returns the ledger newest first. It never fails: absent or corrupt
// storage reads as empty.
func (l *Ledger) ReadAll() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(l.Key())
}

// ReadAllAt reads the ledger stored under an explicit key.
func (l *Ledger) ReadAllAt(key string) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(key)
}

// Get finds the record with gameID.
func (l *Ledger) Get(gameID string) (Record, bool) {
	records := l.ReadAll()
	if idx := indexOf(records, gameID); idx >= 0 {
		return records[idx], true
	}
	return Record{}, false
}

// Remove deletes the record with gameID and reports whether one existed.
func (l *Ledger) Remove(gameID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := l.Key()
	n, err := l.removeAt(key, map[string]bool{gameID: true})
	return n > 0, err
}

// RemoveAt deletes every record under key whose game id is in gameIDs and
// returns how many were removed.
func (l *Ledger) RemoveAt(key string, gameIDs map[string]bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeAt(key, gameIDs)
}

func (l *Ledger) removeAt(key string, gameIDs map[string]bool) (int, error) {
	records := l.read(key)
	kept := records[:0:0]
	for _, r := range records {
		if !gameIDs[r.GameID] {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := l.write("remove", key, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear removes the ledger for the current key.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := l.Key()
	if err := l.store.Remove(key); err != nil {
		return &PersistError{Op: "clear", Key: key, Err: err}
	}
	return nil
}

// Overwrite replaces the whole ledger without validation. Used when the
// score service is authoritative.
func (l *Ledger) Overwrite(records []Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write("overwrite", l.Key(), records)
}

// ImportAll validates every record and then replaces the ledger. Nothing is
// written unless all records pass.
func (l *Ledger) ImportAll(records []Record) error {
	if err := Validate(records); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write("import", l.Key(), records)
}

// ExportAll returns every record for export.
func (l *Ledger) ExportAll() []Record {
	return l.ReadAll()
}

// Validate checks that every record has a game id, a non-negative score and a
// timestamp, and that no game id repeats.
func Validate(records []Record) error {
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		switch {
		case r.GameID == "":
			return &ValidationError{Index: i, Reason: "missing gameId"}
		case r.Score < 0:
			return &ValidationError{Index: i, Reason: "negative score"}
		case r.Timestamp == 0:
			return &ValidationError{Index: i, Reason: "missing timestamp"}
		case seen[r.GameID]:
			return &ValidationError{Index: i, Reason: "duplicate gameId " + r.GameID}
		}
		seen[r.GameID] = true
	}
	return nil
}

func (l *Ledger) read(key string) []Record {
	raw, ok, err := l.store.Get(key)
	if err != nil {
		log.Printf("[Ledger] reading %s: %v\n", key, err)
		return []Record{}
	}
	if !ok || raw == "" {
		return []Record{}
	}
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("[Ledger] corrupt data under %s, treating as empty: %v\n", key, err)
		return []Record{}
	}
	if records == nil {
		records = []Record{}
	}
	return records
}

func (l *Ledger) write(op, key string, records []Record) error {
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return &PersistError{Op: op, Key: key, Err: err}
	}
	if err := l.store.Set(key, string(raw)); err != nil {
		return &PersistError{Op: op, Key: key, Err: err}
	}
	return nil
}

func indexOf(records []Record, gameID string) int {
	for i, r := range records {
		if r.GameID == gameID {
			return i
		}
	}
	return -1
}
