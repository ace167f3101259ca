package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"

	"github.com/azura-academy/governance/app/governance/types"
	"github.com/azura-academy/governance/pkg/utils"
)

type Controller struct {
	App        *types.App
	AdminToken string
	AuthUser   string
	Users      map[string]types.User
	AuthHash   []byte
	JWTSecret  []byte
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminToken := utils.Env("ADMIN_TOKEN", "devtoken")
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminUsersJSON := utils.Env("ADMIN_USERS", "")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	jwtSecret := []byte(utils.Env("SESSION_SECRET", "change-me-please"))

	phash, _ := utils.HashOrRead(adminPass)
	users := map[string]types.User{}
	users[adminUser] = types.User{Username: adminUser, Hash: phash, Role: "admin"}
	if adminUsersJSON != "" {
		_ = json.Unmarshal([]byte(adminUsersJSON), &users)
	}

	return &Controller{
		App:        app,
		AdminToken: adminToken,
		AuthUser:   adminUser,
		Users:      users,
		AuthHash:   phash,
		JWTSecret:  jwtSecret,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: Echo back the origin to allow credentials with any origin
		// TODO: Restrict this in production to specific domains
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodPut+", "+http.MethodPatch+", "+http.MethodDelete+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	// basically it's ok, could even be a public endpoint
	r.Handle("/api/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	// Login/Logout
	r.HandleFunc("/api/auth/login", c.HandleAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", c.HandleAdminLogout).Methods(http.MethodPost)

	// Proposal lifecycle
	r.Handle("/api/proposals", c.RequireAuth(http.HandlerFunc(c.HandleProposalSubmit))).Methods(http.MethodPost)
	r.Handle("/api/proposals", c.RequireAuth(http.HandlerFunc(c.HandleProposalsList))).Methods(http.MethodGet)
	r.Handle("/api/proposals/{id}", c.RequireAuth(http.HandlerFunc(c.HandleProposalDetail))).Methods(http.MethodGet)
	r.Handle("/api/proposals/{id}/review", c.RequireAuth(http.HandlerFunc(c.HandleReviewAttach))).Methods(http.MethodPost)
	r.Handle("/api/proposals/{id}/review", c.RequireAuth(http.HandlerFunc(c.HandleReviewDetail))).Methods(http.MethodGet)
	r.Handle("/api/proposals/{id}/complete", c.RequireAdmin(http.HandlerFunc(c.HandleProposalComplete))).Methods(http.MethodPost)

	// Voting
	r.Handle("/api/proposals/{id}/votes", c.RequireAdmin(http.HandlerFunc(c.HandleVoteCast))).Methods(http.MethodPost)
	r.Handle("/api/proposals/{id}/votes", c.RequireAuth(http.HandlerFunc(c.HandleVoteSummary))).Methods(http.MethodGet)

	// On-chain submission tracking
	r.Handle("/api/proposals/{id}/transaction", c.RequireAuth(http.HandlerFunc(c.HandleTransactionRecord))).Methods(http.MethodPost)
	r.Handle("/api/transactions/{id}/confirm", c.RequireAdmin(http.HandlerFunc(c.HandleTransactionConfirm))).Methods(http.MethodPost)
	r.Handle("/api/transactions/{id}/fail", c.RequireAdmin(http.HandlerFunc(c.HandleTransactionFail))).Methods(http.MethodPost)

	// Multisig payout tracking
	r.Handle("/api/proposals/{id}/multisig", c.RequireAuth(http.HandlerFunc(c.HandleMultisigDetail))).Methods(http.MethodGet)
	r.Handle("/api/proposals/{id}/multisig", c.RequireAdmin(http.HandlerFunc(c.HandleMultisigCreate))).Methods(http.MethodPost)
	r.Handle("/api/multisig/{id}/proposed", c.RequireAdmin(http.HandlerFunc(c.HandleMultisigProposed))).Methods(http.MethodPost)
	r.Handle("/api/multisig/{id}/executed", c.RequireAdmin(http.HandlerFunc(c.HandleMultisigExecuted))).Methods(http.MethodPost)
	r.Handle("/api/multisig/{id}/failed", c.RequireAdmin(http.HandlerFunc(c.HandleMultisigFailed))).Methods(http.MethodPost)

	// Admin registry
	r.Handle("/api/admins", c.RequireAdmin(http.HandlerFunc(c.HandleAdminsList))).Methods(http.MethodGet)
	r.Handle("/api/admins", c.RequireAdmin(http.HandlerFunc(c.HandleAdminRegister))).Methods(http.MethodPost)
	r.Handle("/api/admins/{id}/active", c.RequireAdmin(http.HandlerFunc(c.HandleAdminSetActive))).Methods(http.MethodPatch)

	// WebSocket endpoint for real-time events
	r.HandleFunc("/api/ws", c.HandleWebSocket).Methods(http.MethodGet)

	return r, nil
}
