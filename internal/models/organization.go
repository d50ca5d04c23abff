package models

// Organization is a DOMjudge team affiliation. DOMjudge accepts either a
// string or a numeric identifier; this service uses the organization name as
// the identifier key when it creates one.
type Organization struct {
	ID         string `json:"id,omitempty"`
	Shortname  string `json:"shortname,omitempty"`
	Name       string `json:"name,omitempty"`
	FormalName string `json:"formal_name,omitempty"`
	Country    string `json:"country,omitempty"`
}
