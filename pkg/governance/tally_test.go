package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	models "github.com/azura-academy/governance/pkg/db/models/governance"
)

func vote(kind string, weight int32) models.AdminVote {
	return models.AdminVote{Vote: kind, VoteWeight: weight}
}

func TestTally(t *testing.T) {
	tests := []struct {
		name          string
		votes         []models.AdminVote
		approveWeight int32
		rejectWeight  int32
		reached       bool
		weightNeeded  int32
	}{
		{
			name:         "empty ledger",
			votes:        nil,
			weightNeeded: 50,
		},
		{
			name:          "below threshold",
			votes:         []models.AdminVote{vote(models.VoteApprove, 40)},
			approveWeight: 40,
			weightNeeded:  10,
		},
		{
			name:          "exactly at threshold",
			votes:         []models.AdminVote{vote(models.VoteApprove, 40), vote(models.VoteApprove, 10)},
			approveWeight: 50,
			reached:       true,
		},
		{
			name:          "above threshold clamps weight needed to zero",
			votes:         []models.AdminVote{vote(models.VoteApprove, 40), vote(models.VoteApprove, 40)},
			approveWeight: 80,
			reached:       true,
		},
		{
			name: "rejects accumulate separately and never subtract",
			votes: []models.AdminVote{
				vote(models.VoteApprove, 40),
				vote(models.VoteReject, 40),
				vote(models.VoteApprove, 10),
			},
			approveWeight: 50,
			rejectWeight:  40,
			reached:       true,
		},
		{
			name:         "rejects alone never reach the threshold",
			votes:        []models.AdminVote{vote(models.VoteReject, 40), vote(models.VoteReject, 40)},
			rejectWeight: 80,
			weightNeeded: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Tally(tt.votes)
			assert.Equal(t, tt.approveWeight, res.ApproveWeight)
			assert.Equal(t, tt.rejectWeight, res.RejectWeight)
			assert.Equal(t, tt.reached, res.ThresholdReached)
			assert.Equal(t, tt.weightNeeded, res.WeightNeeded)
		})
	}
}
