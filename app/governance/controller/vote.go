package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	gov "github.com/azura-academy/governance/pkg/governance"
)

// HandleVoteCast appends one weighted admin ballot.
func (c *Controller) HandleVoteCast(w http.ResponseWriter, r *http.Request) {
	var in gov.CastVoteInput
	if !c.decode(w, r, &in) {
		return
	}
	in.ProposalID = mux.Vars(r)["id"]

	vote, err := c.App.Engine.CastVote(r.Context(), in)
	if err != nil {
		c.respondError(w, err)
		return
	}

	c.App.SummaryCache.Invalidate(in.ProposalID)

	c.respondJSON(w, http.StatusCreated, vote)
}

// HandleVoteSummary returns the proposal's vote tally. Summaries are cached
// for a few seconds because the dashboard polls them while a vote is open.
func (c *Controller) HandleVoteSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if summary, ok := c.App.SummaryCache.Get(id); ok {
		c.respondJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := c.App.Engine.VoteSummary(r.Context(), id)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.App.SummaryCache.Put(id, summary)

	c.respondJSON(w, http.StatusOK, summary)
}
