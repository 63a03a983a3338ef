// Package services contains application services for the SubTrack client.
// This file defines the authentication service: login, registration,
// logout, profile maintenance and the local session bookkeeping that goes
// with them.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/subtrack/internal/client/client"
	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/logging"
)

var (
	// ErrNoSession is returned by calls that need a stored token when there
	// is none.
	ErrNoSession = errors.New("not signed in")
	// ErrMissingUser means the server answered successfully but the body
	// carried no user.
	ErrMissingUser = errors.New("response contains no user")
	// ErrEmptyUpdate is returned by UpdateProfile when nothing would change.
	ErrEmptyUpdate = errors.New("nothing to update")
)

// Fallback messages for enveloped answers with "success": false and no
// message of their own.
const (
	MsgChangePasswordFailed = "Failed to change password"
	MsgUpdateProfileFailed  = "Failed to update profile"
	MsgDeleteAccountFailed  = "Failed to delete account"
	MsgLoadProfileFailed    = "Failed to load profile"
)

// Session is the part of the session store the services use.
// *session.Store implements it.
type Session interface {
	GetToken(ctx context.Context) (string, bool)
	GetUser(ctx context.Context) (*models.User, bool)
	SetUser(ctx context.Context, u *models.User) error
	Save(ctx context.Context, token string, u *models.User) error
	ClearAuth(ctx context.Context) error
}

// AuthResult is what login and registration hand back.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login / Register: call the server; when it returns a token, persist the
//     token and user before returning.
//   - Logout: best-effort remote call; the local session is always cleared.
//   - GetCurrentUser / UpdateProfile: refresh the cached user from the
//     server's answer.
//   - ChangePassword: fails with the server's message when it rejects the
//     request.
//   - DeleteAccount: removes the account remotely, then the local session.
//   - IsAuthenticated / GetStoredUser: local reads only.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*AuthResult, error)
	Register(ctx context.Context, name, email string, password []byte) (*AuthResult, error)
	Logout(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, current, next []byte) error
	DeleteAccount(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	GetStoredUser(ctx context.Context) (*models.User, bool)
}

type authService struct {
	api     client.API
	session Session
	log     logging.Logger
}

// NewAuthService constructs an AuthService over the given API client and
// session store.
func NewAuthService(api client.API, session Session, log logging.Logger) AuthService {
	return &authService{
		api:     api,
		session: session,
		log:     logging.OrNop(log).With("component", "auth"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*AuthResult, error) {
	return a.authenticate(ctx, "/auth/login", loginRequest{Email: email, Password: string(password)})
}

func (a *authService) Register(ctx context.Context, name, email string, password []byte) (*AuthResult, error) {
	return a.authenticate(ctx, "/auth/register", registerRequest{Name: name, Email: email, Password: string(password)})
}

// authenticate posts credentials and persists the returned session. The
// answer may be bare ({token, user}) or enveloped ({success, data:{...}}).
// An answer without a token is returned as is and leaves the store alone.
func (a *authService) authenticate(ctx context.Context, endpoint string, body any) (*AuthResult, error) {
	var raw json.RawMessage
	if err := a.api.Post(ctx, endpoint, body, &raw); err != nil {
		return nil, err
	}

	data, err := client.UnwrapEnvelope(raw, client.MsgServerError)
	if err != nil {
		return nil, err
	}

	res := &AuthResult{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, res); err != nil {
			return nil, &client.Error{Message: "Malformed response from server", Kind: client.ErrDecode, Cause: err}
		}
	}

	if res.Token == "" {
		a.log.Warn(ctx, "auth response without token", "endpoint", endpoint)
		return res, nil
	}

	if err := a.session.Save(ctx, res.Token, res.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if res.User != nil {
		a.log.Info(ctx, "signed in", "user_id", res.User.ID)
	}
	return res, nil
}

// Logout tells the server the session is over and clears the local session
// whatever the outcome of the remote call. Only a local storage failure is
// reported.
func (a *authService) Logout(ctx context.Context) (err error) {
	defer func() {
		if cerr := a.session.ClearAuth(context.WithoutCancel(ctx)); cerr != nil {
			a.log.Error(ctx, "clear session on logout", "error", cerr)
			err = cerr
		}
	}()

	if rerr := a.api.Post(ctx, "/auth/logout", nil, nil); rerr != nil {
		a.log.Warn(ctx, "logout request failed", "status", client.StatusCode(rerr), "error", rerr)
	}
	return nil
}

func (a *authService) GetCurrentUser(ctx context.Context) (*models.User, error) {
	if _, ok := a.session.GetToken(ctx); !ok {
		return nil, ErrNoSession
	}

	var raw json.RawMessage
	if err := a.api.Get(ctx, "/auth/me", &raw); err != nil {
		return nil, err
	}

	u, err := userFromResponse(raw, MsgLoadProfileFailed)
	if err != nil {
		return nil, err
	}
	a.cacheUser(ctx, u)
	return u, nil
}

func (a *authService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, ErrEmptyUpdate
	}

	var raw json.RawMessage
	if err := a.api.Put(ctx, "/users/me", upd, &raw); err != nil {
		return nil, err
	}

	u, err := userFromResponse(raw, MsgUpdateProfileFailed)
	if err != nil {
		return nil, err
	}
	a.cacheUser(ctx, u)
	return u, nil
}

func (a *authService) ChangePassword(ctx context.Context, current, next []byte) error {
	var raw json.RawMessage
	req := changePasswordRequest{CurrentPassword: string(current), NewPassword: string(next)}
	if err := a.api.Put(ctx, "/users/me/password", req, &raw); err != nil {
		return err
	}

	// Only an explicit "success": true counts; a bare 200 is a rejection.
	var res struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &res); err != nil {
			return &client.Error{Message: "Malformed response from server", Kind: client.ErrDecode, Cause: err}
		}
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = MsgChangePasswordFailed
		}
		return &client.Error{Status: http.StatusOK, Message: msg, Kind: client.ErrRejected}
	}
	return nil
}

func (a *authService) DeleteAccount(ctx context.Context) error {
	var raw json.RawMessage
	if err := a.api.Delete(ctx, "/users/me", &raw); err != nil {
		return err
	}
	if _, err := client.UnwrapEnvelope(raw, MsgDeleteAccountFailed); err != nil {
		return err
	}

	if err := a.session.ClearAuth(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("account deleted, but local session was not cleared: %w", err)
	}
	a.log.Info(ctx, "account deleted")
	return nil
}

func (a *authService) IsAuthenticated(ctx context.Context) bool {
	_, ok := a.session.GetToken(ctx)
	return ok
}

func (a *authService) GetStoredUser(ctx context.Context) (*models.User, bool) {
	return a.session.GetUser(ctx)
}

// cacheUser refreshes the cached profile. The server's answer is already
// authoritative, so a storage failure is only logged.
func (a *authService) cacheUser(ctx context.Context, u *models.User) {
	if err := a.session.SetUser(ctx, u); err != nil {
		a.log.Error(ctx, "cache user", "error", err)
	}
}

func userFromResponse(raw json.RawMessage, fallback string) (*models.User, error) {
	data, err := client.UnwrapEnvelope(raw, fallback)
	if err != nil {
		return nil, err
	}
	return extractUser(data)
}

// extractUser finds the user in a response body. Accepted shapes:
// {"user": {...}}, {"data": {...}} (recursively) and a bare user object.
func extractUser(raw json.RawMessage) (*models.User, error) {
	if len(raw) == 0 {
		return nil, ErrMissingUser
	}

	var wrapped struct {
		User *models.User    `json:"user"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingUser, err)
	}
	if wrapped.User != nil {
		return wrapped.User, nil
	}
	if len(wrapped.Data) > 0 && string(wrapped.Data) != "null" {
		return extractUser(wrapped.Data)
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err == nil && u.ID != "" {
		return &u, nil
	}
	return nil, ErrMissingUser
}
