package entities

type Role string

const (
	RoleAdmin Role = "admin"
	RoleVoter Role = "voter"
)

// Actor is the identity acting on the ledger. Capability checks happen once,
// at the use-case boundary, against the tagged role rather than free-form
// string comparison at call sites.
type Actor struct {
	ActorID string
	Role    Role
	Account string
}

func (a Actor) CanVote() bool {
	return a.Role == RoleVoter
}

func (a Actor) CanAdminister() bool {
	return a.Role == RoleAdmin
}
