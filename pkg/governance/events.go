package governance

import (
	"context"
	"time"
)

// Event types emitted by the engine. The frontend subscribes to these over
// the WebSocket endpoint; the payout executor consumes execution requests
// from the Redis stream the sink maintains.
const (
	EventProposalCreated  = "proposal.created"
	EventReviewAttached   = "review.attached"
	EventProposalRejected = "proposal.rejected"
	EventVoteCast         = "vote.cast"
	EventReadyForMultisig = "proposal.ready_for_multisig"
	EventTxRecorded       = "transaction.recorded"
	EventProposalActive   = "proposal.activated"
	EventProposalReverted = "proposal.reverted"
	EventProposalComplete = "proposal.completed"
	EventMultisigProposed = "multisig.proposed"
	EventMultisigExecuted = "multisig.executed"
	EventMultisigFailed   = "multisig.failed"
)

// Event is a lifecycle notification for collaborators.
type Event struct {
	Type       string      `json:"type"`
	ProposalID string      `json:"proposal_id"`
	Payload    interface{} `json:"payload,omitempty"`
	At         time.Time   `json:"at"`
}

// EventSink receives lifecycle events. Delivery is best-effort: a sink
// failure must never fail the transaction that produced the event.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

// NopSink discards events; used when Redis is disabled and in tests.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
