package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/subtrack/internal/client/authstate"
	"github.com/dmitrijs2005/subtrack/internal/client/client"
	"github.com/dmitrijs2005/subtrack/internal/client/config"
	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/repositories/kv"
	"github.com/dmitrijs2005/subtrack/internal/client/repositories/subscriptions"
	"github.com/dmitrijs2005/subtrack/internal/client/services"
	"github.com/dmitrijs2005/subtrack/internal/client/session"
	"github.com/dmitrijs2005/subtrack/internal/client/storage"
	"github.com/dmitrijs2005/subtrack/internal/logging"
)

// ErrProfileNotLoaded is returned by dashboard commands when a token is
// stored but the profile could not be fetched yet.
var ErrProfileNotLoaded = errors.New("profile not loaded, try 'refresh'")

// claimsReader exposes the stored token's claims for the status command.
type claimsReader interface {
	TokenClaims(ctx context.Context) (*session.Claims, error)
}

type App struct {
	apiBase     string
	db          *sql.DB
	state       *authstate.Manager
	authService services.AuthService
	subService  services.SubscriptionService
	claims      claimsReader
	reader      *bufio.Reader
	out         io.Writer
	log         logging.Logger
}

// NewApp opens the local database and wires the session store, HTTP client,
// services and auth state behind the REPL.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	log = logging.OrNop(log)

	db, err := storage.Open(ctx, c.DBPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	store := session.NewStore(kv.NewSQLiteRepository(db), log)

	api, err := client.New(c.APIBaseURL, store,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(api, store, log)
	ss := services.NewSubscriptionService(api, subscriptions.NewSQLiteRepository(db), log)

	return &App{
		apiBase:     api.BaseURL(),
		db:          db,
		state:       authstate.NewManager(as, log),
		authService: as,
		subService:  ss,
		claims:      store,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		log:         log,
	}, nil
}

// Run starts the REPL and releases resources once the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() error {
	a.state.Close()
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.state.Snapshot(ctx).IsAuthenticated
}

// currentUser returns the in-memory user for commands that need an id.
func (a *App) currentUser(ctx context.Context) (*models.User, error) {
	s := a.state.Snapshot(ctx)
	if s.User != nil {
		return s.User, nil
	}
	if s.IsAuthenticated {
		return nil, ErrProfileNotLoaded
	}
	return nil, services.ErrNoSession
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
