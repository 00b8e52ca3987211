package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix = "ride:"
	channelSuffix = ":live"
)

// Hub fans live ride telemetry out to spectators. With Redis configured,
// every instance publishes to ride:{id}:live and delivers from its pattern
// subscription, so watchers on any instance see every rider.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	ready   chan struct{}
}

type Client struct {
	RouteID string
	Send    chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
		ready:   make(chan struct{}),
	}

	if redisClient != nil {
		go h.subscribeRedis()
	} else {
		close(h.ready)
	}
	return h
}

// Ready is closed once the hub can receive broadcasts.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) Register(routeID string) *Client {
	client := &Client{
		RouteID: routeID,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[routeID] == nil {
		h.clients[routeID] = map[*Client]struct{}{}
	}
	h.clients[routeID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	routeClients, ok := h.clients[client.RouteID]
	if !ok {
		return
	}
	if _, ok := routeClients[client]; !ok {
		return
	}
	delete(routeClients, client)
	if len(routeClients) == 0 {
		delete(h.clients, client.RouteID)
	}
	close(client.Send)
}

func (h *Hub) Watchers(routeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[routeID])
}

func (h *Hub) Broadcast(routeID string, payload []byte) {
	if h.redis == nil {
		h.deliver(routeID, payload)
		return
	}

	err := h.redis.Publish(context.Background(), redisChannel(routeID), payload).Err()
	if err != nil {
		log.Printf("redis publish error: %v", err)
		h.deliver(routeID, payload)
	}
}

func (h *Hub) deliver(routeID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[routeID] {
		select {
		case client.Send <- payload:
		default:
			// slow spectator, drop the frame
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("redis subscribe error: %v", err)
	}
	close(h.ready)

	for msg := range pubsub.Channel() {
		routeID := routeIDFromChannel(msg.Channel)
		if routeID == "" {
			continue
		}
		h.deliver(routeID, []byte(msg.Payload))
	}
}

func redisChannel(routeID string) string {
	return channelPrefix + routeID + channelSuffix
}

func routeIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
