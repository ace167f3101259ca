package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	gov "github.com/azura-academy/governance/pkg/governance"
	"github.com/azura-academy/governance/pkg/utils"
)

// HandleProposalSubmit creates a proposal in pending_review.
func (c *Controller) HandleProposalSubmit(w http.ResponseWriter, r *http.Request) {
	var in gov.SubmitProposalInput
	if !c.decode(w, r, &in) {
		return
	}

	p, err := c.App.Engine.SubmitProposal(r.Context(), in)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusCreated, p)
}

// HandleProposalsList lists proposals, optionally filtered by ?status=.
func (c *Controller) HandleProposalsList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := utils.EnvInt("PROPOSALS_PAGE_SIZE", 100)

	proposals, err := c.App.Engine.ListProposals(r.Context(), status, limit)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]interface{}{"proposals": proposals})
}

// HandleProposalDetail returns one proposal.
func (c *Controller) HandleProposalDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := c.App.Engine.GetProposal(r.Context(), id)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, p)
}

// HandleProposalComplete moves an active proposal to its terminal completed
// status.
func (c *Controller) HandleProposalComplete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := c.App.Engine.CompleteProposal(r.Context(), id); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
