package models

// Team is the payload sent to DOMjudge when registering a team. The ID is
// allocated by this service, not by DOMjudge; the name is the de-duplication
// key across the contest.
type Team struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	Description    string   `json:"description,omitempty"`
	OrganizationID string   `json:"organization_id"`
	GroupIDs       []string `json:"group_ids"`
}
