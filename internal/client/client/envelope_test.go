package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantData string
		wantMsg  string
	}{
		{name: "data object", raw: `{"success":true,"data":{"user":{"_id":"1"}}}`, wantData: `{"user":{"_id":"1"}}`},
		{name: "data array", raw: `{"success":true,"data":[1,2]}`, wantData: `[1,2]`},
		{name: "no data", raw: `{"success":true,"message":"ok"}`, wantData: ``},
		{name: "null data", raw: `{"success":true,"data":null}`, wantData: ``},
		{name: "bare object", raw: `{"_id":"1","name":"A"}`, wantData: `{"_id":"1","name":"A"}`},
		{name: "bare array", raw: `[{"_id":"1"}]`, wantData: `[{"_id":"1"}]`},
		{name: "rejected with message", raw: `{"success":false,"message":"wrong password"}`, wantMsg: "wrong password"},
		{name: "rejected with error", raw: `{"success":false,"error":"locked"}`, wantMsg: "locked"},
		{name: "rejected bare", raw: `{"success":false}`, wantMsg: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := UnwrapEnvelope(json.RawMessage(tt.raw), "fallback")
			if tt.wantMsg != "" {
				require.ErrorIs(t, err, ErrRejected)
				assert.Equal(t, tt.wantMsg, err.Error())
				assert.Equal(t, 200, StatusCode(err))
				return
			}
			require.NoError(t, err)
			if tt.wantData == "" {
				assert.Nil(t, data)
				return
			}
			assert.JSONEq(t, tt.wantData, string(data))
		})
	}
}

func TestUnwrapEnvelope_MalformedObject(t *testing.T) {
	_, err := UnwrapEnvelope(json.RawMessage(`{"success":`), "x")
	require.ErrorIs(t, err, ErrDecode)
}

func TestEnvelope_Decodes(t *testing.T) {
	var env Envelope[[]int]
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"data":[1,2,3]}`), &env))
	assert.True(t, env.Success)
	require.NotNil(t, env.Data)
	assert.Equal(t, []int{1, 2, 3}, *env.Data)
}
