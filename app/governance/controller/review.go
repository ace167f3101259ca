package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	gov "github.com/azura-academy/governance/pkg/governance"
)

// HandleReviewAttach records the AI review verdict. On approval the proposal
// moves to pending_admin_vote and the Azura ballot is synthesized; on
// rejection the proposal terminates.
func (c *Controller) HandleReviewAttach(w http.ResponseWriter, r *http.Request) {
	var in gov.AttachReviewInput
	if !c.decode(w, r, &in) {
		return
	}
	in.ProposalID = mux.Vars(r)["id"]

	review, err := c.App.Engine.AttachReview(r.Context(), in)
	if err != nil {
		c.respondError(w, err)
		return
	}

	// The verdict changed the proposal's vote picture; drop any cached tally.
	c.App.SummaryCache.Invalidate(in.ProposalID)

	c.respondJSON(w, http.StatusCreated, review)
}

// HandleReviewDetail returns the proposal's AI review.
func (c *Controller) HandleReviewDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	review, err := c.App.Engine.GetReview(r.Context(), id)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, review)
}
