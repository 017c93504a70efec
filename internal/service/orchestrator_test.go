package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-leaderboard/internal/config"
	"github.com/arcade-leaderboard/internal/domain"
	"github.com/arcade-leaderboard/internal/remote"
	"github.com/arcade-leaderboard/internal/store"
)

func newTestOrchestrator(t *testing.T, remoteURL string) *Orchestrator {
	t.Helper()
	return newTestOrchestratorNamed(t, remoteURL, "TestPlayer")
}

func newTestOrchestratorNamed(t *testing.T, remoteURL, playerName string) *Orchestrator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	localStore := store.New(filepath.Join(t.TempDir(), "leaderboard.json"), logger)

	remoteClient, err := remote.NewClient(&config.RemoteConfig{
		BaseURL:      remoteURL,
		Timeout:      2 * time.Second,
		CacheTTL:     60 * time.Second,
		AllTimeBoard: config.BoardKeys{PublicKey: "at-pub", PrivateKey: "at-priv"},
		DailyBoard:   config.BoardKeys{PublicKey: "d-pub", PrivateKey: "d-priv"},
	}, logger)
	require.NoError(t, err)

	names := NameProviderFunc(func() string { return playerName })
	cfg := &config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100}
	return NewOrchestrator(localStore, remoteClient, names, cfg, logger)
}

// collectMirrors registers a hook and returns a channel delivering one
// outcome per background mirror attempt.
func collectMirrors(o *Orchestrator) <-chan bool {
	outcomes := make(chan bool, 8)
	o.SetMirrorHook(func(board domain.BoardType, ok bool) {
		outcomes <- ok
	})
	return outcomes
}

func waitMirrors(t *testing.T, outcomes <-chan bool, n int) []bool {
	t.Helper()
	var got []bool
	for i := 0; i < n; i++ {
		select {
		case ok := <-outcomes:
			got = append(got, ok)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for mirror %d of %d", i+1, n)
		}
	}
	return got
}

func TestSubmitScoreComputesAndRanks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	outcomes := collectMirrors(o)

	result, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached:   3,
		EnemiesKilled:   120,
		BossesKilled:    1,
		DurationSeconds: 200,
		Character:       "knight",
	})
	require.NoError(t, err)

	assert.Equal(t, 26700, result.Entry.Score)
	assert.Equal(t, "TestPlayer", result.Entry.Name)
	assert.Equal(t, 1, result.Rank)
	assert.Equal(t, 1, result.DailyRank)
	assert.True(t, result.IsNewBest)
	assert.True(t, result.IsNewPersonalBest)
	assert.NotEmpty(t, result.Entry.ID)

	// Both hosted boards were mirrored in the background.
	mirrors := waitMirrors(t, outcomes, 2)
	assert.Equal(t, []bool{true, true}, mirrors)
}

func TestSubmitScoreDoesNotWaitForMirror(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	o := newTestOrchestrator(t, server.URL)

	start := time.Now()
	result, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached: 2, Character: "rogue",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rank)
	// The remote server is still holding both mirror requests open.
	assert.Less(t, time.Since(start), time.Second)
}

func TestSubmitScoreMirrorFailureNotSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	outcomes := collectMirrors(o)

	result, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached: 4, Character: "mage",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rank)

	mirrors := waitMirrors(t, outcomes, 2)
	assert.Equal(t, []bool{false, false}, mirrors)
}

func TestSubmitScoreOrdering(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)

	// A short run scores less than a longer one at equal depth.
	first, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached: 1, DurationSeconds: 500, Character: "knight",
	})
	require.NoError(t, err)
	second, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached: 5, DurationSeconds: 100, Character: "knight",
	})
	require.NoError(t, err)

	assert.Greater(t, second.Entry.Score, first.Entry.Score)
	assert.Equal(t, 1, second.Rank)

	board := o.AllTimeLeaderboard(10)
	require.Len(t, board, 2)
	assert.Equal(t, second.Entry.ID, board[0].ID)

	assert.Equal(t, 1, o.PlayerAllTimeRank())
	assert.Equal(t, 1, o.PlayerDailyRank(""))

	best := o.PlayerBestEntry()
	require.NotNil(t, best)
	assert.Equal(t, second.Entry.Score, best.Score)
}

func TestSubmitScoreSanitizesName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// The stored entry carries the cleaned name, not the raw provider
	// value, so local boards and hosted boards agree on identity.
	o := newTestOrchestratorNamed(t, server.URL, "Ann@ #1!! with way more than twenty characters")

	result, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached: 2, Character: "knight",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann1withwaymorethant", result.Entry.Name)

	board := o.AllTimeLeaderboard(10)
	require.Len(t, board, 1)
	assert.Equal(t, "Ann1withwaymorethant", board[0].Name)

	// Rank lookups resolve through the same cleaned name.
	assert.Equal(t, 1, o.PlayerAllTimeRank())
	require.NotNil(t, o.PlayerBestEntry())
}

func TestSubmitScoreEmptyNameFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o := newTestOrchestratorNamed(t, server.URL, "")

	result, err := o.SubmitScore(context.Background(), domain.RunStats{
		FloorsReached: 1, Character: "rogue",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackName, result.Entry.Name)
	assert.Equal(t, 1, o.PlayerDailyRank(""))
}

func TestSubmitScoreDefaultsCharacter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)

	result, err := o.SubmitScore(context.Background(), domain.RunStats{FloorsReached: 2})
	require.NoError(t, err)
	assert.Equal(t, "unknown", result.Entry.Character)

	_, ok := o.CharacterPersonalBest("unknown")
	assert.True(t, ok)
}

func TestOnlineReadsDegrade(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)

	entries, total, err := o.OnlineLeaderboard(context.Background(), 10)
	assert.Error(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)

	_, _, err = o.DailyOnlineLeaderboard(context.Background(), 10)
	assert.Error(t, err)

	_, _, err = o.GlobalRank(context.Background())
	assert.Error(t, err)
}
