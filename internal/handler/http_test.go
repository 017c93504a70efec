package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-leaderboard/internal/config"
	"github.com/arcade-leaderboard/internal/remote"
	"github.com/arcade-leaderboard/internal/service"
	"github.com/arcade-leaderboard/internal/store"
	"github.com/arcade-leaderboard/internal/websocket"
)

// newTestServer wires a full stack against a fake hosted board.
func newTestServer(t *testing.T, remoteHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	remoteServer := httptest.NewServer(remoteHandler)
	t.Cleanup(remoteServer.Close)

	localStore := store.New(filepath.Join(t.TempDir(), "leaderboard.json"), logger)
	remoteClient, err := remote.NewClient(&config.RemoteConfig{
		BaseURL:      remoteServer.URL,
		Timeout:      2 * time.Second,
		CacheTTL:     60 * time.Second,
		AllTimeBoard: config.BoardKeys{PublicKey: "at-pub", PrivateKey: "at-priv"},
		DailyBoard:   config.BoardKeys{PublicKey: "d-pub", PrivateKey: "d-priv"},
	}, logger)
	require.NoError(t, err)

	names := service.NameProviderFunc(func() string { return "TestPlayer" })
	orchestrator := service.NewOrchestrator(localStore, remoteClient, names,
		&config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100}, logger)

	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(NewHandler(orchestrator, hub, logger).Router())
	t.Cleanup(server.Close)
	return server
}

func okRemote(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var api APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&api))
	return api
}

func TestSubmitRunAndReadBoards(t *testing.T) {
	server := newTestServer(t, okRemote)

	body, _ := json.Marshal(map[string]interface{}{
		"floors_reached":   3,
		"enemies_killed":   120,
		"bosses_killed":    1,
		"duration_seconds": 200,
		"character":        "knight",
	})
	resp, err := http.Post(server.URL+"/api/v1/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	api := decodeResponse(t, resp)
	assert.True(t, api.Success)
	data := api.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["rank"])
	assert.Equal(t, "26,700", data["formatted_score"])
	assert.Equal(t, "3:20", data["formatted_time"])

	for _, path := range []string{
		"/api/v1/leaderboards/daily",
		"/api/v1/leaderboards/alltime",
	} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		api := decodeResponse(t, resp)
		require.True(t, api.Success, path)
		entries := api.Data.([]interface{})
		assert.Len(t, entries, 1, path)
	}

	resp, err = http.Get(server.URL + "/api/v1/player/rank/alltime")
	require.NoError(t, err)
	api = decodeResponse(t, resp)
	assert.Equal(t, float64(1), api.Data.(map[string]interface{})["rank"])

	resp, err = http.Get(server.URL + "/api/v1/leaderboards/personal/knight")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	api = decodeResponse(t, resp)
	assert.Equal(t, float64(26700), api.Data.(map[string]interface{})["best_score"])
}

func TestSubmitRunRejectsInvalidPayload(t *testing.T) {
	server := newTestServer(t, okRemote)

	resp, err := http.Post(server.URL+"/api/v1/runs", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := json.Marshal(map[string]interface{}{"floors_reached": 0})
	resp, err = http.Post(server.URL+"/api/v1/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownCharacterIs404(t *testing.T) {
	server := newTestServer(t, okRemote)

	resp, err := http.Get(server.URL + "/api/v1/leaderboards/personal/nobody")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOnlineBoardDegradesTo200(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	resp, err := http.Get(server.URL + "/api/v1/online/alltime")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	api := decodeResponse(t, resp)
	require.True(t, api.Success)
	data := api.Data.(map[string]interface{})
	assert.NotEmpty(t, data["error"])
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(t, okRemote)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
