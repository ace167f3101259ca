package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	gov "github.com/azura-academy/governance/pkg/governance"
)

func (c *Controller) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps engine errors onto HTTP statuses: bad input is 400,
// duplicates and uniqueness races are 409, legal requests against the wrong
// lifecycle state are 422, and anything unrecognized is a logged 500.
func (c *Controller) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case gov.IsValidation(err):
		status = http.StatusBadRequest
	case gov.IsConflict(err):
		status = http.StatusConflict
	case gov.IsInvalidState(err):
		status = http.StatusUnprocessableEntity
	case gov.IsNotFound(err):
		status = http.StatusNotFound
	default:
		c.App.Logger.Error("Request failed", zap.Error(err))
	}
	c.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func (c *Controller) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		c.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return false
	}
	return true
}
