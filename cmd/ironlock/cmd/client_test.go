package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/ironlock/activity"
	"github.com/jmcleod/ironlock/api"
	"github.com/jmcleod/ironlock/auth"
	"github.com/jmcleod/ironlock/keys"
	"github.com/jmcleod/ironlock/monitor"
	"github.com/jmcleod/ironlock/storage/memory"
	"github.com/jmcleod/ironlock/views"
)

func newTestClient(t *testing.T) *apiClient {
	t.Helper()
	store := memory.NewStore()
	keySvc := keys.NewService()
	keySvc.GenerateKey()
	authState := auth.NewState()
	_, err := authState.Authenticate("alice")
	require.NoError(t, err)
	tracker := views.NewTracker()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m, err := monitor.New(monitor.Collaborators{
		Store:  store,
		Keys:   keySvc,
		Auth:   authState,
		Views:  tracker,
		Logout: func(context.Context) error { keySvc.Lock(); authState.End(); return nil },
	}, monitor.WithLogger(logger))
	require.NoError(t, err)

	srv := httptest.NewServer(api.New(m, activity.NewRecorder(store), tracker, api.WithLogger(logger)).Handler(nil))
	t.Cleanup(srv.Close)
	return newAPIClient(strings.TrimPrefix(srv.URL, "http://"))
}

func TestAPIClient(t *testing.T) {
	c := newTestClient(t)

	minutes := 5
	require.NoError(t, c.do(http.MethodPut, "/timeout", api.TimeoutRequest{Minutes: &minutes}, nil))
	require.NoError(t, c.do(http.MethodPost, "/activity", nil, &api.ActivityResponse{}))
	require.NoError(t, c.do(http.MethodPost, "/views/settings", nil, nil))

	var st api.StatusResponse
	require.NoError(t, c.do(http.MethodGet, "/status", nil, &st))
	require.NotNil(t, st.TimeoutMinutes)
	assert.Equal(t, 5, *st.TimeoutMinutes)
	assert.True(t, st.BlockingViewOpen)
	assert.Equal(t, []string{"settings"}, st.Views)

	require.NoError(t, c.do(http.MethodPost, "/lock", nil, nil))
	require.NoError(t, c.do(http.MethodGet, "/status", nil, &st))
	assert.True(t, st.Locked)
}

func TestAPIClientErrors(t *testing.T) {
	c := newTestClient(t)

	err := c.do(http.MethodPut, "/timeout", api.TimeoutRequest{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minutes is required")

	unreachable := newAPIClient("127.0.0.1:1")
	err = unreachable.do(http.MethodGet, "/status", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contacting ironlock")
}
