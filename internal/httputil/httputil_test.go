// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := Do(ts.Client(), req, "test API")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_StatusErrorNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("  slow down  "))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = Do(ts.Client(), req, "test API")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "slow down", se.Body)
	assert.Equal(t, "test API returned HTTP 429: slow down", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_TransportError(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1/unreachable", nil)
	require.NoError(t, err)

	_, err = Do(http.DefaultClient, req, "test API")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "test API request:"))
}

func TestGetJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "agent/1", r.Header.Get("User-Agent"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer ts.Close()

	var out struct{ Name string }
	err := GetJSON(context.Background(), ts.Client(), ts.URL, "agent/1", "test API", map[string]string{"x-api-key": "k"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
}

func TestPostJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer ts.Close()

	var out map[string]string
	err := PostJSON(context.Background(), ts.Client(), ts.URL, "test API", nil, map[string]string{"msg": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestPostJSON_MalformedReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{broken`))
	}))
	defer ts.Close()

	var out map[string]string
	err := PostJSON(context.Background(), ts.Client(), ts.URL, "test API", nil, struct{}{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing test API response")
}
