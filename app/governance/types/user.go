package types

// User is a dashboard login. Credentials come from the environment, not the
// admin_users table: admin_users drives vote eligibility, Users drives API
// access.
type User struct {
	Username string `json:"username"`
	Hash     []byte `json:"hash"`
	Role     string `json:"role"`
}
