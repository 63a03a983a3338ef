// Package session persists the client's authentication state: the bearer
// token and a cached copy of the signed-in user's profile.
//
// Reads never fail from the caller's point of view. A missing, corrupt or
// unreadable entry is reported as absent, and a corrupt user entry is removed
// so the next read is clean.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/repositories/kv"
	"github.com/dmitrijs2005/subtrack/internal/logging"
)

// Storage keys. They match what earlier clients wrote so a session survives
// an upgrade.
const (
	TokenKey = "auth_token"
	UserKey  = "user_data"
)

// Tokens left behind by clients that stored a stringified empty value.
var corruptTokens = map[string]struct{}{
	"undefined": {},
	"null":      {},
}

type Store struct {
	repo kv.Repository
	log  logging.Logger
}

func NewStore(repo kv.Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: logging.OrNop(log).With("component", "session")}
}

// GetToken returns the stored bearer token. ok is false when no usable
// token is stored.
func (s *Store) GetToken(ctx context.Context) (token string, ok bool) {
	v, err := s.repo.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Error(ctx, "read token", "error", err)
		}
		return "", false
	}

	token = string(v)
	if token == "" {
		return "", false
	}
	if _, bad := corruptTokens[token]; bad {
		return "", false
	}
	return token, true
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.repo.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Store) RemoveToken(ctx context.Context) error {
	if err := s.repo.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// GetUser returns the cached user profile. A malformed entry, a JSON null or
// a user without an id is logged, deleted and reported as absent.
func (s *Store) GetUser(ctx context.Context) (*models.User, bool) {
	v, err := s.repo.Get(ctx, UserKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Error(ctx, "read cached user", "error", err)
		}
		return nil, false
	}

	var u *models.User
	if err := json.Unmarshal(v, &u); err != nil {
		s.log.Error(ctx, "cached user is corrupt, discarding", "error", err)
		s.discardUser(ctx)
		return nil, false
	}
	if u == nil || u.ID == "" {
		s.log.Warn(ctx, "cached user is empty, discarding")
		s.discardUser(ctx)
		return nil, false
	}
	return u, true
}

func (s *Store) discardUser(ctx context.Context) {
	if err := s.repo.Delete(ctx, UserKey); err != nil {
		s.log.Error(ctx, "discard cached user", "error", err)
	}
}

// SetUser caches u. A nil user removes the entry.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.RemoveUser(ctx)
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.repo.Set(ctx, UserKey, b); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) RemoveUser(ctx context.Context) error {
	if err := s.repo.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}

// Save stores token and user together, the way a successful login does.
func (s *Store) Save(ctx context.Context, token string, u *models.User) error {
	if err := s.SetToken(ctx, token); err != nil {
		return err
	}
	return s.SetUser(ctx, u)
}

// ClearAuth drops the token and the cached user in one step.
func (s *Store) ClearAuth(ctx context.Context) error {
	if err := s.repo.DeleteKeys(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
