package models

// RoleTeam is the only role provisioned accounts receive.
const RoleTeam = "team"

// User is the payload sent to DOMjudge when registering a team login
// account. A team and its primary user share the same numeric identifier.
// The password is transport-only: it is handed to DOMjudge at creation and
// never persisted by this service.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Enabled  bool     `json:"enabled"`
	TeamID   string   `json:"team_id"`
	Roles    []string `json:"roles"`
}
