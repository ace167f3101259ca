package controller

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleTransactionRecord stores the hash of the user's on-chain submission
// so the confirmation monitor starts polling for its receipt.
func (c *Controller) HandleTransactionRecord(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	proposalID := mux.Vars(r)["id"]

	tx, err := c.App.Engine.RecordSubmissionTx(r.Context(), proposalID, in.TransactionHash)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusCreated, tx)
}

// HandleTransactionConfirm manually settles a pending submission as
// confirmed. The monitor does this automatically; the endpoint exists for
// operators when the RPC is misbehaving.
func (c *Controller) HandleTransactionConfirm(w http.ResponseWriter, r *http.Request) {
	var in struct {
		GasUsed uint64 `json:"gas_used"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	id := mux.Vars(r)["id"]

	if err := c.App.Engine.ConfirmSubmissionTx(r.Context(), id, in.GasUsed); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// HandleTransactionFail manually settles a pending submission as failed and
// rolls the proposal back so the author can retry.
func (c *Controller) HandleTransactionFail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	id := mux.Vars(r)["id"]
	if in.Reason == "" {
		in.Reason = "failed by operator " + c.currentUser(r)
	}

	if err := c.App.Engine.FailSubmissionTx(r.Context(), id, in.Reason); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}
