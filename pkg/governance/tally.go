package governance

import (
	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

const (
	// ApprovalThreshold is the approve-weight sum (0-100 scale) at which a
	// proposal advances toward execution.
	ApprovalThreshold int32 = 50

	// MaxVoteWeight caps any single ballot, human or Azura.
	MaxVoteWeight int32 = 40

	// MinTokenAllocation / MaxTokenAllocation bound the allocation suggested
	// by an approving AI review.
	MinTokenAllocation int32 = 1
	MaxTokenAllocation int32 = 40
)

// TallyResult aggregates the vote ledger for one proposal.
type TallyResult struct {
	ApproveWeight    int32
	RejectWeight     int32
	ThresholdReached bool
	WeightNeeded     int32
}

// Tally is a pure function over the vote ledger. It has no side effects and
// is re-run after every ballot insert as well as for read-only summaries.
func Tally(votes []models.AdminVote) TallyResult {
	var res TallyResult
	for _, v := range votes {
		switch v.Vote {
		case models.VoteApprove:
			res.ApproveWeight += v.VoteWeight
		case models.VoteReject:
			res.RejectWeight += v.VoteWeight
		}
	}
	res.ThresholdReached = res.ApproveWeight >= ApprovalThreshold
	res.WeightNeeded = ApprovalThreshold - res.ApproveWeight
	if res.WeightNeeded < 0 {
		res.WeightNeeded = 0
	}
	return res
}
