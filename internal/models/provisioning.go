package models

// ProvisioningRequest is the input for creating one team. Field names match
// the spreadsheet-derived wire format: "uni" is the sponsoring organization,
// "names" the comma-separated member names.
type ProvisioningRequest struct {
	Team         string `json:"team"`
	Organization string `json:"uni"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	Email        string `json:"email,omitempty"`
	Names        string `json:"names,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Result is the per-item outcome of a provisioning attempt.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	TeamID   int    `json:"teamId,omitempty"`
	UserID   int    `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CreatedUser summarizes the credentials of a provisioned (or simulated)
// team account, in the shape the credential-distribution tooling expects.
type CreatedUser struct {
	Team     string `json:"team"`
	ID       int    `json:"id"`
	Username string `json:"username"`
	Names    string `json:"names,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// BulkReport aggregates a bulk provisioning run. Skipped items (team names
// already present on the contest server) are counted but produce no Result
// entry. Total = Created + Failed + Skipped always holds.
type BulkReport struct {
	Total        int           `json:"total"`
	Created      int           `json:"created"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Results      []Result      `json:"results"`
	CreatedUsers []CreatedUser `json:"createdUsers"`
}

// TeamSummary is one entry of the GET /teams listing.
type TeamSummary struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// OrganizationSummary is one entry of the GET /organizations listing.
type OrganizationSummary struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// UserSummary is one entry of the GET /users listing.
type UserSummary struct {
	Username string `json:"username"`
	ID       int    `json:"id"`
}
