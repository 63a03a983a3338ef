package authstate

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/services"
	"github.com/dmitrijs2005/subtrack/internal/logging"
)

type Manager struct {
	auth services.AuthService
	log  logging.Logger

	mu        sync.Mutex
	user      *models.User
	phase     Phase
	loading   bool
	listeners map[int]func(State)
	nextID    int
}

func NewManager(auth services.AuthService, log logging.Logger) *Manager {
	return &Manager{
		auth:      auth,
		log:       logging.OrNop(log).With("component", "authstate"),
		phase:     PhaseUninitialized,
		loading:   true,
		listeners: make(map[int]func(State)),
	}
}

// Init bootstraps the state from the session store. With a stored token the
// cached user is taken as is; only when there is none is the profile
// fetched, exactly once. Errors are logged and leave the state anonymous.
// Calls after the first are no-ops.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	if m.phase != PhaseUninitialized {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseLoading
	m.mu.Unlock()
	m.notify(ctx)

	user, phase := m.bootstrap(ctx)

	m.mu.Lock()
	m.user = user
	m.phase = phase
	m.loading = false
	m.mu.Unlock()
	m.notify(ctx)
}

func (m *Manager) bootstrap(ctx context.Context) (*models.User, Phase) {
	if !m.auth.IsAuthenticated(ctx) {
		return nil, PhaseAnonymous
	}

	if u, ok := m.auth.GetStoredUser(ctx); ok {
		return u, PhaseTentative
	}

	u, err := m.auth.GetCurrentUser(ctx)
	if err != nil {
		m.log.Error(ctx, "auth initialization failed", "error", err)
		return nil, PhaseAnonymous
	}
	return u, PhaseAuthenticated
}

// Login signs in and makes the returned user current. On error the state is
// left as it was.
func (m *Manager) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.signedIn(ctx, res)
	return res.User, nil
}

func (m *Manager) Register(ctx context.Context, name, email string, password []byte) (*models.User, error) {
	res, err := m.auth.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	m.signedIn(ctx, res)
	return res.User, nil
}

func (m *Manager) signedIn(ctx context.Context, res *services.AuthResult) {
	phase := PhaseAuthenticated
	if res.User == nil && res.Token == "" {
		phase = PhaseAnonymous
	}
	m.set(ctx, res.User, phase)
}

// Logout ends the session. The in-memory user is dropped even when the
// service reports a local storage failure, which is returned.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.auth.Logout(ctx)
	m.set(ctx, nil, PhaseAnonymous)
	return err
}

// RefreshUser re-reads the profile from the server. On failure the user is
// dropped and the error returned after being logged.
func (m *Manager) RefreshUser(ctx context.Context) (*models.User, error) {
	u, err := m.auth.GetCurrentUser(ctx)
	if err != nil {
		m.log.Error(ctx, "failed to refresh user", "error", err)
		m.set(ctx, nil, PhaseAnonymous)
		return nil, err
	}
	m.set(ctx, u, PhaseAuthenticated)
	return u, nil
}

// UpdateProfile applies upd remotely and mirrors the server's answer.
func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	u, err := m.auth.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, err
	}
	m.set(ctx, u, PhaseAuthenticated)
	return u, nil
}

func (m *Manager) DeleteAccount(ctx context.Context) error {
	if err := m.auth.DeleteAccount(ctx); err != nil {
		return err
	}
	m.set(ctx, nil, PhaseAnonymous)
	return nil
}

// Snapshot returns the current state. IsAuthenticated is true while a user
// is held in memory or a token is stored. A session purged by a 401 only
// reads as signed out once the in-memory user is also gone (Logout,
// a failed RefreshUser).
func (m *Manager) Snapshot(ctx context.Context) State {
	m.mu.Lock()
	s := State{User: m.user, IsLoading: m.loading, Phase: m.phase}
	m.mu.Unlock()

	s.IsAuthenticated = s.User != nil || m.auth.IsAuthenticated(ctx)
	return s
}

// Subscribe registers fn to be called with the new state after every
// transition. The returned function removes it; calling it twice is safe.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Close drops every listener.
func (m *Manager) Close() {
	m.mu.Lock()
	clear(m.listeners)
	m.mu.Unlock()
}

func (m *Manager) set(ctx context.Context, u *models.User, phase Phase) {
	m.mu.Lock()
	m.user = u
	m.phase = phase
	m.mu.Unlock()
	m.notify(ctx)
}

// notify runs the listeners without holding the lock so they may call back
// into the Manager.
func (m *Manager) notify(ctx context.Context) {
	m.mu.Lock()
	if len(m.listeners) == 0 {
		m.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(State), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	s := m.Snapshot(ctx)
	for _, fn := range fns {
		fn(s)
	}
}
