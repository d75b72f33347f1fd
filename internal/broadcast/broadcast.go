// Package broadcast turns accepted scores into live feed messages for
// event-stream subscribers and the websocket hub.
package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/qianfeiqianlan/2048-clash/internal/events"
	"github.com/qianfeiqianlan/2048-clash/internal/wshub"
)

type EventMessage struct {
	Event string
	Msg   string
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan EventMessage]bool
	hub     *wshub.Hub
}

// NewBroadcaster drains bus until it is closed. hub may be nil.
func NewBroadcaster(bus *events.Bus, hub *wshub.Hub) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan EventMessage]bool),
		hub:     hub,
	}
	go func() {
		for ev := range bus.Scores {
			b.PublishScore(ev)
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan EventMessage {
	ch := make(chan EventMessage, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan EventMessage) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

// PublishScore sends ev to every subscriber and websocket client.
func (b *Broadcaster) PublishScore(ev events.ScoreAccepted) {
	msg := wshub.ServerMessage{
		Type:     "score",
		UserID:   ev.Entry.UserID,
		Username: ev.Username,
		GameID:   ev.Entry.GameID,
		Score:    ev.Entry.Score,
		Date:     ev.Entry.Date,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Broadcast] Marshal error: %v\n", err)
		return
	}
	b.Broadcast("score", string(data))
	if b.hub != nil {
		b.hub.Broadcast(msg)
	}
}

func (b *Broadcaster) Broadcast(event string, message string) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- EventMessage{Event: event, Msg: message}:
		default:
			// skip clients with full data channels
		}
	}
}
