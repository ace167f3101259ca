package controller

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleAdminsList returns the voter registry.
func (c *Controller) HandleAdminsList(w http.ResponseWriter, r *http.Request) {
	admins, err := c.App.Engine.ListAdmins(r.Context())
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]interface{}{"admins": admins})
}

// HandleAdminRegister adds a human voter to the registry.
func (c *Controller) HandleAdminRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID        string `json:"user_id"`
		WalletAddress string `json:"wallet_address"`
	}
	if !c.decode(w, r, &in) {
		return
	}

	admin, err := c.App.Engine.RegisterAdmin(r.Context(), in.UserID, in.WalletAddress)
	if err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusCreated, admin)
}

// HandleAdminSetActive flips a voter's eligibility.
func (c *Controller) HandleAdminSetActive(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsActive bool `json:"is_active"`
	}
	if !c.decode(w, r, &in) {
		return
	}
	id := mux.Vars(r)["id"]

	if err := c.App.Engine.SetAdminActive(r.Context(), id, in.IsActive); err != nil {
		c.respondError(w, err)
		return
	}
	c.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_active": in.IsActive})
}
