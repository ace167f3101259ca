package controller

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleMultisigDetail returns the proposal's active payout record.
func (c *Controller) HandleMultisigDetail(w http.ResponseWriter, r *http.Request) {
	proposalID := mux.Vars(r)["id"]

	mst, err := c.App.Engine.GetPayoutByProposal(r.Context(), proposalID)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, mst)
}

// HandleMultisigCreate records a pending payout for an executor that manages
// its own safe. Threshold promotion normally creates this record already.
func (c *Controller) HandleMultisigCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SafeAddress      string `json:"safe_address"`
		RecipientAddress string `json:"recipient_address"`
		USDCAmount       uint64 `json:"usdc_amount"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	proposalID := mux.Vars(r)["id"]

	mst, err := c.App.Engine.CreatePendingPayout(r.Context(), proposalID, in.SafeAddress, in.RecipientAddress, in.USDCAmount)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusCreated, mst)
}

// HandleMultisigProposed records that the payout was proposed to the safe
// signers.
func (c *Controller) HandleMultisigProposed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SafeTxHash string `json:"safe_tx_hash"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	id := mux.Vars(r)["id"]

	if err := c.App.Engine.MarkPayoutProposed(r.Context(), id, in.SafeTxHash); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]string{"status": "proposed"})
}

// HandleMultisigExecuted records the executed payout's chain transaction.
func (c *Controller) HandleMultisigExecuted(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BlockchainTxHash string `json:"blockchain_tx_hash"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	id := mux.Vars(r)["id"]

	if err := c.App.Engine.MarkPayoutExecuted(r.Context(), id, in.BlockchainTxHash); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

// HandleMultisigFailed marks the payout attempt failed, which frees the
// proposal for a fresh payout record.
func (c *Controller) HandleMultisigFailed(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := c.App.Engine.MarkPayoutFailed(r.Context(), id); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}
