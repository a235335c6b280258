package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/testutil"
)

func TestHealthz(t *testing.T) {
	_, rc := testutil.NewRedis(t)
	gdb := testutil.NewDB(t)

	router := NewHTTPRouter(map[string]Check{
		"db":    DBCheck(gdb),
		"redis": rc.Ping,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"db":"ok","redis":"ok"}`, rec.Body.String())
}

func TestHealthz_FailingDependency(t *testing.T) {
	router := NewHTTPRouter(map[string]Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"redis":"connection refused"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHTTPRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestJSONCodec(t *testing.T) {
	type msg struct {
		UserID string `json:"user_id"`
		Page   int    `json:"page"`
	}
	c := JSONCodec{}
	b, err := c.Marshal(&msg{UserID: "7", Page: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"7","page":2}`, string(b))

	var out msg
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, msg{UserID: "7", Page: 2}, out)
	require.NoError(t, c.Unmarshal(nil, &out), "empty message decodes to zero value")
	assert.Equal(t, "json", c.Name())
}
