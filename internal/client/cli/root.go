package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/subtrack/internal/client/authstate"
)

func (a *App) getStatus(ctx context.Context) string {
	s := a.state.Snapshot(ctx)
	switch {
	case s.User != nil && s.Phase == authstate.PhaseTentative:
		return fmt.Sprintf("(%s, cached)", s.User.Email)
	case s.User != nil:
		return fmt.Sprintf("(%s)", s.User.Email)
	case s.IsAuthenticated:
		return "(signed in)"
	default:
		return ""
	}
}

// Root bootstraps the auth state and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to SubTrack CLI (type 'help' for commands)")

	unsubscribe := a.state.Subscribe(func(s authstate.State) {
		a.log.Debug(ctx, "auth state changed",
			"phase", s.Phase.String(),
			"authenticated", s.IsAuthenticated,
			"loading", s.IsLoading)
	})
	defer unsubscribe()

	a.state.Init(ctx)
	if u := a.state.Snapshot(ctx).User; u != nil {
		printlnFn("Signed in as", u.Email)
	}

	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}
