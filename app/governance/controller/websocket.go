package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/azura-academy/governance/pkg/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, restrict to specific origins
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action     string `json:"action"`     // "subscribe" or "unsubscribe"
	ProposalID string `json:"proposalId"` // Proposal to follow, or "*" for all proposals
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // lifecycle event type, "subscribed", "unsubscribed", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// clientSubscriptions tracks which proposals a client is following.
type clientSubscriptions struct {
	mu        sync.RWMutex
	proposals map[string]bool
}

// NewClientSubscriptions creates a new clientSubscriptions tracker.
// Exported for testing.
func NewClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{
		proposals: make(map[string]bool),
	}
}

// Subscribe adds a proposal ID to the subscription list.
// Exported for testing.
func (cs *clientSubscriptions) Subscribe(proposalID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.proposals[proposalID] = true
}

// Unsubscribe removes a proposal ID from the subscription list.
// Exported for testing.
func (cs *clientSubscriptions) Unsubscribe(proposalID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.proposals, proposalID)
}

// IsSubscribed checks if a proposal ID is subscribed. Wildcard (*) matches everything.
// Exported for testing.
func (cs *clientSubscriptions) IsSubscribed(proposalID string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.proposals["*"] {
		return true
	}
	return cs.proposals[proposalID]
}

// HandleWebSocket upgrades the connection and streams proposal lifecycle events.
//
// Protocol:
// Client sends: {"action": "subscribe", "proposalId": "<uuid>"}  // Follow one proposal
// Client sends: {"action": "subscribe", "proposalId": "*"}       // Follow ALL proposals
// Client sends: {"action": "unsubscribe", "proposalId": "<uuid>"}
//
// Server sends:
// - {"type": "proposal.vote_cast", "payload": {...}} (and the other lifecycle events)
// - {"type": "subscribed", "payload": {"proposalId": "<uuid>"}}
// - {"type": "unsubscribed", "payload": {"proposalId": "<uuid>"}}
// - {"type": "error", "payload": {"message": "..."}}
//
// IMPORTANT: All goroutines have panic recovery to prevent crashes.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Real-time events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			c.App.Logger.Error("Failed to close WebSocket connection", zap.Error(err))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := NewClientSubscriptions()
	send := make(chan ServerMessage, 256)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in Redis subscriber goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.subscribeToRedis(ctx, send, subs)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in ping ticker goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.sendPings(ctx, conn)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in message writer goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.writeMessages(conn, send)
	}()

	// Read messages from the client until the connection closes
	c.readClientMessages(ctx, conn, cancel, subs, send)

	close(send)
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// subscribeToRedis pattern-subscribes to the governance event namespace and
// forwards matching events to the send channel, filtered server-side by the
// client's proposal subscriptions.
//
// Implements automatic reconnection with exponential backoff: the client is
// notified while Redis is unavailable and the subscription is restored when
// it recovers.
func (c *Controller) subscribeToRedis(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions) {
	pattern := events.ChannelPrefix + "*"

	const (
		initialBackoff = 1 * time.Second
		maxBackoff     = 30 * time.Second
		backoffFactor  = 2.0
		jitterFactor   = 0.1 // 10% jitter
	)

	backoff := initialBackoff
	attemptNum := 0

	for {
		select {
		case <-ctx.Done():
			c.App.Logger.Info("Redis subscription cancelled")
			return
		default:
		}

		attemptNum++

		subscriptionErr := c.attemptRedisSubscription(ctx, pattern, send, subs, attemptNum)

		if ctx.Err() != nil {
			c.App.Logger.Info("Redis subscription cancelled")
			return
		}

		if subscriptionErr != nil {
			c.App.Logger.Warn("Redis subscription failed, will retry",
				zap.Error(subscriptionErr),
				zap.Int("attempt", attemptNum),
				zap.Duration("backoff", backoff))
		} else {
			c.App.Logger.Warn("Redis subscription channel closed, will retry",
				zap.Int("attempt", attemptNum),
				zap.Duration("backoff", backoff))
		}

		select {
		case send <- ServerMessage{
			Type: "error",
			Payload: map[string]interface{}{
				"message":     "Redis connection lost, attempting to reconnect...",
				"retryIn":     backoff.Seconds(),
				"attempt":     attemptNum,
				"recoverable": true,
			},
		}:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			c.App.Logger.Info("Redis subscription cancelled during backoff")
			return
		}

		backoff = CalculateNextBackoff(backoff, maxBackoff, backoffFactor, jitterFactor)
	}
}

// attemptRedisSubscription attempts a single Redis subscription and processes
// messages until the subscription fails or the context is cancelled.
func (c *Controller) attemptRedisSubscription(
	ctx context.Context,
	pattern string,
	send chan<- ServerMessage,
	subs *clientSubscriptions,
	attemptNum int,
) error {
	pubsub := c.App.RedisClient.PSubscribe(ctx, pattern)
	defer func() {
		if err := pubsub.Close(); err != nil {
			c.App.Logger.Error("Error closing Redis subscription", zap.Error(err))
		}
	}()

	receiveCtx, receiveCancel := context.WithTimeout(ctx, 5*time.Second)
	defer receiveCancel()

	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("failed to confirm Redis subscription: %w", err)
	}

	c.App.Logger.Info("Subscribed to Redis pattern",
		zap.String("pattern", pattern),
		zap.Int("attempt", attemptNum))

	return c.processRedisMessages(ctx, pubsub, send, subs)
}

// processRedisMessages forwards events from the PubSub channel until it
// closes or the context is cancelled.
func (c *Controller) processRedisMessages(
	ctx context.Context,
	pubsub *redis.PubSub,
	send chan<- ServerMessage,
	subs *clientSubscriptions,
) error {
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				// Channel closed - the normal Redis disconnection case
				return nil
			}

			eventType := ExtractEventTypeFromChannel(msg.Channel)
			if eventType == "" {
				c.App.Logger.Warn("Failed to extract event type from channel",
					zap.String("channel", msg.Channel))
				continue
			}

			var payload struct {
				ProposalID string `json:"proposal_id"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				c.App.Logger.Error("Failed to parse Redis message",
					zap.Error(err),
					zap.String("channel", msg.Channel))
				continue
			}

			// Server-side filtering: only forward if the client follows this proposal
			if !subs.IsSubscribed(payload.ProposalID) {
				continue
			}

			var full map[string]interface{}
			_ = json.Unmarshal([]byte(msg.Payload), &full)

			select {
			case send <- ServerMessage{Type: eventType, Payload: full}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// CalculateNextBackoff calculates the next backoff duration with exponential growth and jitter.
// Exported for testing.
func CalculateNextBackoff(current, max time.Duration, factor, jitterFactor float64) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		next = max
	}

	// Jitter prevents all clients from retrying at exactly the same time
	jitter := float64(next) * jitterFactor * (2*rand.Float64() - 1)
	nextWithJitter := time.Duration(float64(next) + jitter)

	if nextWithJitter < current {
		nextWithJitter = current
	}
	if nextWithJitter > max {
		nextWithJitter = max
	}

	return nextWithJitter
}

// ExtractEventTypeFromChannel extracts the event type from a Redis channel
// name shaped "academy:governance:<event type>".
// Exported for testing.
func ExtractEventTypeFromChannel(channel string) string {
	if !strings.HasPrefix(channel, events.ChannelPrefix) {
		return ""
	}
	return strings.TrimPrefix(channel, events.ChannelPrefix)
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan ServerMessage) {
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Error("Failed to write WebSocket message", zap.Error(err))
			return
		}
	}
}

// readClientMessages reads subscription requests from the client and detects
// connection closure.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subs *clientSubscriptions, send chan<- ServerMessage) {
	if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
			return err
		}
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.App.Logger.Error("WebSocket read error", zap.Error(err))
				}
				cancel()
				return
			}

			if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
				c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
				return
			}

			switch msg.Action {
			case "subscribe":
				if msg.ProposalID == "" {
					send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "proposalId is required"}}
					continue
				}
				subs.Subscribe(msg.ProposalID)
				c.App.Logger.Debug("Client subscribed", zap.String("proposalId", msg.ProposalID))
				send <- ServerMessage{Type: "subscribed", Payload: map[string]string{"proposalId": msg.ProposalID}}

			case "unsubscribe":
				if msg.ProposalID == "" {
					send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "proposalId is required"}}
					continue
				}
				subs.Unsubscribe(msg.ProposalID)
				c.App.Logger.Debug("Client unsubscribed", zap.String("proposalId", msg.ProposalID))
				send <- ServerMessage{Type: "unsubscribed", Payload: map[string]string{"proposalId": msg.ProposalID}}

			default:
				send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
			}
		}
	}
}
