package authstate

import "github.com/dmitrijs2005/subtrack/internal/client/models"

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseTentative
	PhaseAuthenticated
	PhaseAnonymous
)

var phaseNames = [...]string{
	PhaseUninitialized: "uninitialized",
	PhaseLoading:       "loading",
	PhaseTentative:     "tentative",
	PhaseAuthenticated: "authenticated",
	PhaseAnonymous:     "anonymous",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// State is a point-in-time view of the auth state.
//
// IsAuthenticated is true when a user is held in memory or a token is
// stored, so it can be true while the bootstrap is still loading.
type State struct {
	User            *models.User
	IsLoading       bool
	IsAuthenticated bool
	Phase           Phase
}
