package events

import "github.com/qianfeiqianlan/2048-clash/internal/analytics"

// ScoreAccepted is published once per newly stored score.
type ScoreAccepted struct {
	Entry    analytics.ScoreEntry
	Username string
}

type Bus struct {
	Scores chan ScoreAccepted
}

func NewBus() *Bus {
	return &Bus{
		Scores: make(chan ScoreAccepted, 100),
	}
}

// Publish hands ev to the bus without blocking. It reports false when the
// buffer is full and the event was dropped.
func (b *Bus) Publish(ev ScoreAccepted) bool {
	select {
	case b.Scores <- ev:
		return true
	default:
		return false
	}
}
