package provisioning

import "errors"

// Error kinds surfaced by the provisioning service. Handlers map these to
// HTTP statuses; anything else is an external (contest server) failure.
var (
	// ErrValidation means the request is missing required fields.
	ErrValidation = errors.New("team name and university name are required")

	// ErrTeamExists means the team name is already registered on the
	// contest server. Wrapped as: team '<name>' already exists.
	ErrTeamExists = errors.New("already exists")

	// ErrIDSpaceExhausted means no free identifier was found within the
	// attempt budget. Widening the range is the only remedy; retrying with
	// the same parameters will not help.
	ErrIDSpaceExhausted = errors.New("identifier space exhausted")
)
