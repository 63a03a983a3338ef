package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/session"
	"github.com/dmitrijs2005/subtrack/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// nowFn is the clock used for token expiry display.
var nowFn = time.Now

var (
	ErrPasswordMismatch = errors.New("passwords must match")
	ErrRequiredField    = errors.New("field is required")
	ErrCancelled        = errors.New("cancelled")
)

// Register prompts for name, email and a repeated password, creates the
// account and opens the dashboard. Password buffers are wiped before
// returning.
func (a *App) Register(ctx context.Context) error {
	name, err := a.requiredText("Enter name")
	if err != nil {
		return err
	}
	email, err := a.requiredText("Enter email")
	if err != nil {
		return err
	}
	if err := models.ValidateEmail(email); err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	repeat, err := getPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeat)

	if !bytes.Equal(password, repeat) {
		return ErrPasswordMismatch
	}

	u, err := a.state.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	a.welcome(u)
	return a.List(ctx)
}

// Login prompts for credentials, signs in and opens the dashboard.
func (a *App) Login(ctx context.Context) error {
	email, err := a.requiredText("Enter email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.state.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.welcome(u)
	return a.List(ctx)
}

func (a *App) welcome(u *models.User) {
	if u == nil {
		a.println("Login successful")
		return
	}
	a.printf("Welcome, %s!\n", displayName(u))
}

// Logout ends the session locally even if the server is unreachable.
func (a *App) Logout(ctx context.Context) error {
	if err := a.state.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

// Status shows the auth phase and what the stored token says about itself.
func (a *App) Status(ctx context.Context) error {
	s := a.state.Snapshot(ctx)
	a.printf("Phase:         %s\n", s.Phase)
	a.printf("Authenticated: %t\n", s.IsAuthenticated)
	a.printf("API:           %s\n", a.apiBase)

	claims, err := a.claims.TokenClaims(ctx)
	switch {
	case errors.Is(err, session.ErrNoToken):
		a.println("Token:         none")
	case errors.Is(err, session.ErrOpaqueToken):
		a.println("Token:         present (opaque)")
	case err != nil:
		return err
	default:
		a.println("Token:         present")
		if claims.Subject != "" {
			a.printf("Subject:       %s\n", claims.Subject)
		}
		if !claims.ExpiresAt.IsZero() {
			left := claims.ExpiresIn(nowFn()).Round(time.Second)
			if left <= 0 {
				a.printf("Expires:       %s (expired; the server will ask you to log in again)\n", claims.ExpiresAt.Format(time.RFC3339))
			} else {
				a.printf("Expires:       %s (in %s)\n", claims.ExpiresAt.Format(time.RFC3339), left)
			}
		}
	}
	return nil
}

// Refresh re-reads the profile from the server. A failure signs the user
// out of the in-memory state.
func (a *App) Refresh(ctx context.Context) error {
	u, err := a.state.RefreshUser(ctx)
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

// Profile edits name and email. Empty answers keep the current value.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate

	name, err := getSimpleText(a.reader, fmt.Sprintf("Enter name (empty keeps %q)", u.Name), a.out)
	if err != nil {
		return err
	}
	if name != "" && name != u.Name {
		upd.Name = &name
	}

	email, err := getSimpleText(a.reader, fmt.Sprintf("Enter email (empty keeps %q)", u.Email), a.out)
	if err != nil {
		return err
	}
	if email != "" && email != u.Email {
		if err := models.ValidateEmail(email); err != nil {
			return err
		}
		upd.Email = &email
	}

	if upd.Empty() {
		a.println("Nothing to update")
		return nil
	}

	updated, err := a.state.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	a.println("Profile updated successfully")
	printUser(a.out, updated)
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	repeat, err := getPassword(a.out, "Repeat new password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeat)

	if len(next) == 0 {
		return fmt.Errorf("new password: %w", ErrRequiredField)
	}
	if !bytes.Equal(next, repeat) {
		return ErrPasswordMismatch
	}

	if err := a.authService.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	a.println("Password updated successfully!")
	return nil
}

// DeleteAccount asks for confirmation, removes the account and forgets the
// cached dashboard.
func (a *App) DeleteAccount(ctx context.Context) error {
	ok, err := GetConfirmation(a.reader,
		"Are you sure you want to delete your account? This action cannot be undone and will permanently remove all your subscriptions.",
		a.out)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}

	if err := a.state.DeleteAccount(ctx); err != nil {
		return err
	}
	if err := a.subService.ClearCache(ctx); err != nil {
		a.log.Warn(ctx, "clear subscription cache", "error", err)
	}
	a.println("Account deleted successfully")
	return nil
}

func (a *App) requiredText(prompt string) (string, error) {
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s: %w", prompt, ErrRequiredField)
	}
	return s, nil
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "Name:   %s\n", u.Name)
	fmt.Fprintf(w, "Email:  %s\n", u.Email)
	fmt.Fprintf(w, "ID:     %s\n", u.ID)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Joined: %s\n", u.CreatedAt.Format("2006-01-02"))
	}
}
