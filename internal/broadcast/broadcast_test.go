package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/qianfeiqianlan/2048-clash/internal/analytics"
	"github.com/qianfeiqianlan/2048-clash/internal/events"
	"github.com/qianfeiqianlan/2048-clash/internal/wshub"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus, nil)
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus, nil)

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus, nil)

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast("test-event", "hello")

	for i, ch := range []chan EventMessage{ch1, ch2} {
		select {
		case msg := <-ch:
			if msg.Event != "test-event" || msg.Msg != "hello" {
				t.Errorf("ch%d got %+v, want event=test-event, msg=hello", i+1, msg)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_BusToSubscribersAndHub(t *testing.T) {
	bus := events.NewBus()
	hub := wshub.NewHub()
	ws := &wshub.Client{ID: "ws1", Send: make(chan []byte, 4)}
	hub.Register(ws)

	b := NewBroadcaster(bus, hub)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	bus.Publish(events.ScoreAccepted{
		Entry:    analytics.ScoreEntry{UserID: "u1", GameID: "g1", Score: 4096},
		Username: "alice",
	})

	select {
	case msg := <-ch:
		var got wshub.ServerMessage
		if err := json.Unmarshal([]byte(msg.Msg), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Event != "score" || got.Username != "alice" || got.Score != 4096 {
			t.Errorf("subscriber got %+v / %+v", msg, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("subscriber timed out")
	}

	select {
	case data := <-ws.Send:
		var got wshub.ServerMessage
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "score" || got.GameID != "g1" {
			t.Errorf("hub client got %+v", got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("hub client timed out")
	}
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus, nil)

	ch := b.Subscribe()

	// Fill the channel buffer (capacity 10)
	for i := 0; i < 10; i++ {
		b.Broadcast("fill", "data")
	}

	done := make(chan struct{})
	go func() {
		b.Broadcast("overflow", "data")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on a full subscriber")
	}

	b.Unsubscribe(ch)
}
