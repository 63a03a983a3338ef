package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/subtrack/internal/client/authstate"
	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubInputs replaces the prompt seams. Text answers and passwords are
// handed out in order.
func stubInputs(t *testing.T, texts []string, passwords ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func TestLogin_SuccessOpensDashboard(t *testing.T) {
	a := newTestApp(t, &fakeAuth{}, "")
	stubInputs(t, []string{"ann@example.com"}, "secret")

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, "ann@example.com", a.auth.loginEmail)
	assert.Equal(t, []byte("secret"), a.auth.loginPass)
	assert.Equal(t, "1", a.subs.listUser, "dashboard is loaded after login")
	assert.Contains(t, a.out.String(), "Welcome, Ann!")
	assert.Equal(t, authstate.PhaseAuthenticated, a.state.Snapshot(context.Background()).Phase)
}

func TestLogin_Failure(t *testing.T) {
	fa := &fakeAuth{loginErr: errors.New("Invalid credentials")}
	a := newTestApp(t, fa, "")
	stubInputs(t, []string{"ann@example.com"}, "bad")

	err := a.Login(context.Background())
	require.EqualError(t, err, "Invalid credentials")
	assert.Empty(t, a.subs.listUser)
	assert.False(t, a.isLoggedIn(context.Background()))
}

func TestLogin_EmptyEmail(t *testing.T) {
	a := newTestApp(t, &fakeAuth{}, "")
	stubInputs(t, []string{""})

	require.ErrorIs(t, a.Login(context.Background()), ErrRequiredField)
}

func TestRegister_Success(t *testing.T) {
	a := newTestApp(t, &fakeAuth{}, "")
	stubInputs(t, []string{"Ann", "ann@example.com"}, "pw", "pw")

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, "Ann", a.auth.regName)
	assert.True(t, a.isLoggedIn(context.Background()))
}

func TestRegister_PasswordMismatch(t *testing.T) {
	a := newTestApp(t, &fakeAuth{}, "")
	stubInputs(t, []string{"Ann", "ann@example.com"}, "pw", "other")

	require.ErrorIs(t, a.Register(context.Background()), ErrPasswordMismatch)
	assert.Empty(t, a.auth.regName)
}

func TestRegister_InvalidEmail(t *testing.T) {
	a := newTestApp(t, &fakeAuth{}, "")
	stubInputs(t, []string{"Ann", "not-an-email"}, "pw", "pw")

	require.ErrorIs(t, a.Register(context.Background()), models.ErrInvalidEmail)
	assert.Empty(t, a.auth.regName)
}

func TestLogout(t *testing.T) {
	a := newTestApp(t, signedIn(), "")

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, a.auth.logoutCalled)
	assert.False(t, a.isLoggedIn(context.Background()))
	assert.Contains(t, a.out.String(), "Logged out")
}

func TestWhoAmI(t *testing.T) {
	a := newTestApp(t, signedIn(), "")

	require.NoError(t, a.WhoAmI(context.Background()))
	assert.Contains(t, a.out.String(), "Email:  ann@example.com")
	assert.Contains(t, a.out.String(), "Joined: 2024-01-02")
}

func TestStatus(t *testing.T) {
	orig := nowFn
	nowFn = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFn = orig })

	tests := []struct {
		name   string
		claims fakeClaims
		want   []string
	}{
		{"no token", fakeClaims{err: session.ErrNoToken}, []string{"Token:         none"}},
		{"opaque", fakeClaims{err: session.ErrOpaqueToken}, []string{"present (opaque)"}},
		{
			"jwt",
			fakeClaims{claims: &session.Claims{Subject: "1", ExpiresAt: time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)}},
			[]string{"Subject:       1", "(in 1h0m0s)"},
		},
		{
			"expired jwt",
			fakeClaims{claims: &session.Claims{ExpiresAt: time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)}},
			[]string{"expired"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, signedIn(), "")
			a.claims = tt.claims

			require.NoError(t, a.Status(context.Background()))
			assert.Contains(t, a.out.String(), "Phase:         tentative")
			assert.Contains(t, a.out.String(), "API:           http://localhost:5500/api")
			for _, w := range tt.want {
				assert.Contains(t, a.out.String(), w)
			}
		})
	}
}

func TestRefresh_FailureSignsOutOfMemory(t *testing.T) {
	fa := signedIn()
	fa.meErr = errors.New("boom")
	a := newTestApp(t, fa, "")

	require.Error(t, a.Refresh(context.Background()))
	assert.Nil(t, a.state.Snapshot(context.Background()).User)
}

func TestProfile_OnlyChangedFields(t *testing.T) {
	a := newTestApp(t, signedIn(), "")
	stubInputs(t, []string{"Ann B", ""})

	require.NoError(t, a.Profile(context.Background()))
	require.NotNil(t, a.auth.lastUpdate.Name)
	assert.Equal(t, "Ann B", *a.auth.lastUpdate.Name)
	assert.Nil(t, a.auth.lastUpdate.Email)
	assert.Equal(t, "Ann B", a.state.Snapshot(context.Background()).User.Name)
}

func TestProfile_InvalidEmail(t *testing.T) {
	a := newTestApp(t, signedIn(), "")
	stubInputs(t, []string{"", "broken@"})

	require.ErrorIs(t, a.Profile(context.Background()), models.ErrInvalidEmail)
	assert.Equal(t, models.ProfileUpdate{}, a.auth.lastUpdate)
}

func TestProfile_NothingToUpdate(t *testing.T) {
	a := newTestApp(t, signedIn(), "")
	stubInputs(t, []string{"", "ann@example.com"})

	require.NoError(t, a.Profile(context.Background()))
	assert.Equal(t, models.ProfileUpdate{}, a.auth.lastUpdate)
	assert.Contains(t, a.out.String(), "Nothing to update")
}

func TestChangePassword(t *testing.T) {
	a := newTestApp(t, signedIn(), "")
	stubInputs(t, nil, "old", "new", "new")

	require.NoError(t, a.ChangePassword(context.Background()))
	assert.Equal(t, []byte("old"), a.auth.pwCurrent)
	assert.Equal(t, []byte("new"), a.auth.pwNext)
	assert.Contains(t, a.out.String(), "Password updated successfully!")
}

func TestChangePassword_ServerRejects(t *testing.T) {
	fa := signedIn()
	fa.pwErr = errors.New("wrong password")
	a := newTestApp(t, fa, "")
	stubInputs(t, nil, "bad", "new", "new")

	require.EqualError(t, a.ChangePassword(context.Background()), "wrong password")
}

func TestChangePassword_Mismatch(t *testing.T) {
	a := newTestApp(t, signedIn(), "")
	stubInputs(t, nil, "old", "new", "typo")

	require.ErrorIs(t, a.ChangePassword(context.Background()), ErrPasswordMismatch)
	assert.Nil(t, a.auth.pwNext)
}

func TestDeleteAccount_Confirmed(t *testing.T) {
	a := newTestApp(t, signedIn(), "yes\n")

	require.NoError(t, a.DeleteAccount(context.Background()))
	assert.True(t, a.auth.deleteCalled)
	assert.True(t, a.subs.cleared)
	assert.False(t, a.isLoggedIn(context.Background()))
}

func TestDeleteAccount_Declined(t *testing.T) {
	a := newTestApp(t, signedIn(), "n\n")

	require.ErrorIs(t, a.DeleteAccount(context.Background()), ErrCancelled)
	assert.False(t, a.auth.deleteCalled)
}
