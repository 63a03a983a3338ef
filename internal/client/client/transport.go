package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/subtrack/internal/logging"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// TokenStore is the part of the session store the transport needs.
type TokenStore interface {
	GetToken(ctx context.Context) (string, bool)
	ClearAuth(ctx context.Context) error
}

// bearerTransport attaches the stored token to every outgoing request. A
// missing token is not an error: the request goes out anonymous.
type bearerTransport struct {
	store TokenStore
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.store.GetToken(req.Context())
	if !ok {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(req)
}

// sessionGuardTransport purges the local session whenever the server answers
// 401. The response itself is passed through untouched so the caller still
// sees the failure.
type sessionGuardTransport struct {
	store TokenStore
	log   logging.Logger
	next  http.RoundTripper
}

func (t *sessionGuardTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// The request context may already be done; the purge must happen anyway.
	ctx := context.WithoutCancel(req.Context())
	if cerr := t.store.ClearAuth(ctx); cerr != nil {
		t.log.Error(ctx, "clear session after 401", "error", cerr)
	} else {
		t.log.Info(ctx, "session rejected by server, local session cleared",
			"method", req.Method, "path", req.URL.Path)
	}
	return resp, nil
}

// requestIDTransport stamps a fresh request id unless the caller set one.
type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return t.next.RoundTrip(req)
}

// chain builds request-id → bearer → session guard → base.
func chain(base http.RoundTripper, store TokenStore, log logging.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	guard := &sessionGuardTransport{store: store, log: log, next: base}
	bearer := &bearerTransport{store: store, next: guard}
	return &requestIDTransport{next: bearer}
}
