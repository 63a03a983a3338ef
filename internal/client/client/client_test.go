package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory TokenStore.
type memStore struct {
	mu       sync.Mutex
	token    string
	clears   int
	clearErr error
}

func (m *memStore) GetToken(context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *memStore) ClearAuth(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.token = ""
	return nil
}

func newTestClient(t *testing.T, store TokenStore, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", store, WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"localhost:5500/api", "ftp://host/api", "://bad"} {
		_, err := New(u, &memStore{})
		assert.Error(t, err, u)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("http://localhost:5500/api/", &memStore{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5500/api", c.BaseURL())
}

func TestRequest_AttachesBearerWhenTokenPresent(t *testing.T) {
	var gotAuth, gotPath, gotReqID string
	c := newTestClient(t, &memStore{token: "T1"}, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotReqID = r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	var out map[string]any
	require.NoError(t, c.Get(context.Background(), "/auth/me", &out))

	assert.Equal(t, "Bearer T1", gotAuth)
	assert.Equal(t, "/api/auth/me", gotPath)
	_, err := uuid.Parse(gotReqID)
	assert.NoError(t, err, "request id must be a uuid")
	assert.Equal(t, true, out["ok"])
}

func TestRequest_AnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	seen := false
	c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		seen = true
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Post(context.Background(), "auth/logout", nil, nil))
	assert.True(t, seen, "request must not be blocked")
	assert.Empty(t, gotAuth)
}

func TestPost_SendsJSONBody(t *testing.T) {
	var got map[string]string
	var ct string
	c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]string{"token": "T1"})
	})

	var out struct {
		Token string `json:"token"`
	}
	err := c.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.com", "password": "secret"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "application/json", ct)
	assert.Equal(t, map[string]string{"email": "a@b.com", "password": "secret"}, got)
	assert.Equal(t, "T1", out.Token)
}

func TestVerbs_UseMatchingMethods(t *testing.T) {
	var methods []string
	c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	require.NoError(t, c.Get(ctx, "/x", nil))
	require.NoError(t, c.Post(ctx, "/x", nil, nil))
	require.NoError(t, c.Put(ctx, "/x", map[string]int{"a": 1}, nil))
	require.NoError(t, c.Delete(ctx, "/x", nil))

	assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE"}, methods)
}

func TestUnauthorized_ClearsSessionAndReturnsError(t *testing.T) {
	store := &memStore{token: "expired"}
	c := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	})

	for _, call := range []func() error{
		func() error { return c.Get(context.Background(), "/auth/me", &map[string]any{}) },
		func() error { return c.Put(context.Background(), "/users/me", map[string]string{"name": "n"}, nil) },
	} {
		store.token = "expired"
		err := call()

		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, "Token expired", err.Error())
		assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
		_, ok := store.GetToken(context.Background())
		assert.False(t, ok, "401 must purge the session")
	}
	assert.Equal(t, 2, store.clears)
}

func TestUnauthorized_ClearFailureStillSurfaces401(t *testing.T) {
	store := &memStore{token: "T", clearErr: errors.New("disk full")}
	c := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Get(context.Background(), "/auth/me", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, MsgServerError, err.Error())
}

func TestNonUnauthorizedErrors_KeepSession(t *testing.T) {
	store := &memStore{token: "T"}
	c := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "nope"})
	})

	err := c.Get(context.Background(), "/v1/subscriptions", nil)
	require.ErrorIs(t, err, ErrServer)
	assert.Zero(t, store.clears)
}

func TestErrorMessage_Preference(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message wins", `{"message":"Invalid credentials","error":"E_AUTH"}`, "Invalid credentials"},
		{"error when no message", `{"error":"Email already in use"}`, "Email already in use"},
		{"error object ignored", `{"error":{"code":42}}`, MsgServerError},
		{"empty object", `{}`, MsgServerError},
		{"not json", `<html>502 Bad Gateway</html>`, MsgServerError},
		{"empty body", ``, MsgServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tt.body)
			})

			err := c.Post(context.Background(), "/auth/register", map[string]string{}, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, http.StatusBadRequest, StatusCode(err))
		})
	}
}

func TestNetworkError_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, &memStore{token: "T"})
	require.NoError(t, err)

	err = c.Get(context.Background(), "/auth/me", nil)
	require.ErrorIs(t, err, ErrNetwork)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, MsgNetworkError, err.Error())
	assert.Zero(t, StatusCode(err))
}

func TestTimeout_IsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := New(srv.URL, &memStore{}, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	err = c.Get(context.Background(), "/slow", nil)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestRequestBuildError_UsesRawMessage(t *testing.T) {
	c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})

	err := c.Post(context.Background(), "/x", map[string]any{"bad": make(chan int)}, nil)
	require.ErrorIs(t, err, ErrRequest)
	assert.Contains(t, err.Error(), "encode request body")
}

func TestSuccess_MalformedBody(t *testing.T) {
	c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"token":`)
	})

	var out map[string]any
	err := c.Get(context.Background(), "/x", &out)
	require.ErrorIs(t, err, ErrDecode)
}

func TestSuccess_EmptyBodyLeavesOutUntouched(t *testing.T) {
	c := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	out := map[string]any{"kept": true}
	require.NoError(t, c.Get(context.Background(), "/x", &out))
	assert.Equal(t, map[string]any{"kept": true}, out)
}

func TestRequestIDTransport_KeepsCallerValue(t *testing.T) {
	var got string
	rt := &requestIDTransport{next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get(RequestIDHeader)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})}

	req := httptest.NewRequest(http.MethodGet, "http://x/", nil)
	req.Header.Set(RequestIDHeader, "fixed")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)
}

func TestBearerTransport_DoesNotMutateCallerRequest(t *testing.T) {
	rt := &bearerTransport{store: &memStore{token: "T"}, next: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})}

	req := httptest.NewRequest(http.MethodGet, "http://x/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
