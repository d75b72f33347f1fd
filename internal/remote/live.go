package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/coder/websocket"
)

// LiveScore is one accepted score pushed by the live leaderboard feed.
type LiveScore struct {
	Type     string `json:"t"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	GameID   string `json:"gameId"`
	Score    int    `json:"score"`
	Date     string `json:"date"`
}

// Follow streams accepted scores to fn until ctx is done or the service closes
// the feed.
func (c *Client) Follow(ctx context.Context, fn func(LiveScore)) error {
	target := c.baseURL + pathLive
	switch {
	case strings.HasPrefix(target, "https://"):
		target = "wss://" + strings.TrimPrefix(target, "https://")
	case strings.HasPrefix(target, "http://"):
		target = "ws://" + strings.TrimPrefix(target, "http://")
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: msgNetwork, Err: err}
	}
	defer conn.CloseNow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil
			}
			return &Error{Kind: KindUnavailable, Message: "live feed disconnected", Err: err}
		}
		var msg LiveScore
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Remote] bad live message: %v\n", err)
			continue
		}
		if msg.Type != "score" {
			continue
		}
		fn(msg)
	}
}
