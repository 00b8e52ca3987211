package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is consumed by the push gateway that talks to the mobile vendors.
const Channel = "notifications:push"

var ErrNotInitialized = errors.New("notification client not initialized")

type Message struct {
	UserID string    `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type Client struct {
	redis *redis.Client
	now   func() time.Time
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Init builds the process-wide client. Calls after the first are no-ops and
// return the first handle.
func Init(rdb *redis.Client) *Client {
	defaultOnce.Do(func() {
		defaultClient = New(rdb)
	})
	return defaultClient
}

// Default returns the handle built by Init, or nil before Init.
func Default() *Client {
	return defaultClient
}

func New(rdb *redis.Client) *Client {
	return &Client{redis: rdb, now: time.Now}
}

func (c *Client) Send(ctx context.Context, userID, title, body string) error {
	if c == nil || c.redis == nil {
		return ErrNotInitialized
	}
	payload, err := json.Marshal(Message{
		UserID: userID,
		Title:  title,
		Body:   body,
		SentAt: c.now().UTC(),
	})
	if err != nil {
		return err
	}
	return c.redis.Publish(ctx, Channel, payload).Err()
}
