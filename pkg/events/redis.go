package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/azura-academy/governance/pkg/governance"
	"github.com/azura-academy/governance/pkg/redis"
)

const (
	// ChannelPrefix is the Pub/Sub namespace for lifecycle events; the
	// WebSocket endpoint pattern-subscribes to ChannelPrefix + "*".
	ChannelPrefix = "academy:governance:"

	// ExecutionStream is the Redis stream the payout executor consumes
	// ready-for-execution requests from.
	ExecutionStream = "academy:governance:execution"
)

// RedisSink publishes lifecycle events to Pub/Sub and mirrors execution
// requests onto a durable stream. All delivery is best-effort: a Redis
// outage never fails the transaction that produced the event.
type RedisSink struct {
	client *redis.Client
	logger *zap.Logger
}

var _ governance.EventSink = (*RedisSink)(nil)

// NewRedisSink wraps a connected Redis client as an event sink.
func NewRedisSink(client *redis.Client, logger *zap.Logger) *RedisSink {
	return &RedisSink{client: client, logger: logger}
}

// Emit publishes one lifecycle event.
func (s *RedisSink) Emit(ctx context.Context, ev governance.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("failed to marshal event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	s.client.Publish(ctx, ChannelPrefix+ev.Type, payload)

	// Pub/Sub is fire-and-forget; the payout executor needs the execution
	// request to survive restarts, so it additionally goes on a stream.
	if ev.Type == governance.EventReadyForMultisig {
		s.client.XAdd(ctx, ExecutionStream, map[string]interface{}{
			"proposal_id": ev.ProposalID,
			"event":       string(payload),
		})
	}
}
