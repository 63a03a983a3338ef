package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/subtrack/internal/client/repositories/kv"
	"github.com/dmitrijs2005/subtrack/internal/client/session"
	"github.com/dmitrijs2005/subtrack/internal/client/storage"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSession(t *testing.T, db *sql.DB) *session.Store {
	t.Helper()
	return session.NewStore(kv.NewSQLiteRepository(db), nil)
}

// ---- fake API ----

type apiCall struct {
	Method   string
	Endpoint string
	Body     any
}

// fakeAPI implements client.API. Responses and errors are keyed by
// "METHOD endpoint".
type fakeAPI struct {
	Responses map[string]string
	Errs      map[string]error

	Calls []apiCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{Responses: map[string]string{}, Errs: map[string]error{}}
}

func (f *fakeAPI) do(method, endpoint string, body, out any) error {
	f.Calls = append(f.Calls, apiCall{Method: method, Endpoint: endpoint, Body: body})

	key := method + " " + endpoint
	if err, ok := f.Errs[key]; ok {
		return err
	}
	if r, ok := f.Responses[key]; ok && out != nil {
		return json.Unmarshal([]byte(r), out)
	}
	return nil
}

func (f *fakeAPI) Get(_ context.Context, endpoint string, out any) error {
	return f.do(http.MethodGet, endpoint, nil, out)
}

func (f *fakeAPI) Post(_ context.Context, endpoint string, body, out any) error {
	return f.do(http.MethodPost, endpoint, body, out)
}

func (f *fakeAPI) Put(_ context.Context, endpoint string, body, out any) error {
	return f.do(http.MethodPut, endpoint, body, out)
}

func (f *fakeAPI) Delete(_ context.Context, endpoint string, out any) error {
	return f.do(http.MethodDelete, endpoint, nil, out)
}
