package ledger

import "time"

// Record is one finished game. GameID and Score never change after creation;
// only the upload-state fields move.
type Record struct {
	GameID    string `json:"gameId"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
	CreatedAt int64  `json:"createdAt"`

	ServerID     string `json:"serverId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	UploadFailed bool   `json:"uploadFailed,omitempty"`
	UploadError  string `json:"uploadError,omitempty"`
	LocalOnly    bool   `json:"localOnly,omitempty"`
	UploadedAt   int64  `json:"uploadedAt,omitempty"`
}

type UploadState string

const (
	StateUnresolved = UploadState("unresolved")
	StateConfirmed  = UploadState("confirmed")
	StateFailed     = UploadState("failed")
	StateLocalOnly  = UploadState("local-only")
)

// State classifies the record. A server id wins over any stale failure or
// local-only flag.
func (r Record) State() UploadState {
	switch {
	case r.ServerID != "":
		return StateConfirmed
	case r.UploadFailed:
		return StateFailed
	case r.LocalOnly:
		return StateLocalOnly
	default:
		return StateUnresolved
	}
}

func (r Record) Confirmed() bool {
	return r.ServerID != ""
}

// Pending reports whether a batch upload should carry the record: local-only
// or never attempted, and not yet confirmed.
func (r Record) Pending() bool {
	return r.ServerID == "" && (r.LocalOnly || !r.UploadFailed)
}

// Confirm returns the record promoted to confirmed with the server's ids.
func (r Record) Confirm(serverID, userID string, at time.Time) Record {
	r.ServerID = serverID
	r.UserID = userID
	r.UploadedAt = at.UnixMilli()
	r.UploadFailed = false
	r.UploadError = ""
	r.LocalOnly = false
	return r
}

// Fail returns the record marked as a failed upload attempt.
func (r Record) Fail(reason string) Record {
	r.UploadFailed = true
	r.UploadError = reason
	r.LocalOnly = false
	return r
}

// FormatDate renders an epoch-millisecond timestamp as UTC ISO-8601 with
// millisecond precision.
func FormatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// ServerScore is a score as the score service stores it.
type ServerScore struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	GameID    string `json:"gameId"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
	CreatedAt int64  `json:"createdAt"`
}

// Record converts a server score into a confirmed local record.
func (s ServerScore) Record(uploadedAt time.Time) Record {
	return Record{
		GameID:     s.GameID,
		Score:      s.Score,
		Timestamp:  s.Timestamp,
		Date:       s.Date,
		CreatedAt:  s.CreatedAt,
		ServerID:   s.ID,
		UserID:     s.UserID,
		UploadedAt: uploadedAt.UnixMilli(),
	}
}

// Ack is the service's acceptance of one uploaded score. GameID echoes the
// submitted record when the service provides it.
type Ack struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	GameID string `json:"gameId,omitempty"`
}
