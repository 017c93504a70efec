package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arcade-leaderboard/internal/config"
	"github.com/arcade-leaderboard/internal/domain"
	"github.com/arcade-leaderboard/internal/remote"
	"github.com/arcade-leaderboard/internal/score"
	"github.com/arcade-leaderboard/internal/store"
	"github.com/arcade-leaderboard/internal/websocket"
)

// NameProvider resolves the display name a submitted score is attributed
// to. The name is user-chosen and not validated by identity.
type NameProvider interface {
	PlayerName() string
}

// NameProviderFunc adapts a function to the NameProvider interface.
type NameProviderFunc func() string

func (f NameProviderFunc) PlayerName() string { return f() }

// MirrorHook observes the outcome of a background remote mirror attempt.
type MirrorHook func(board domain.BoardType, ok bool)

// Orchestrator is the single entry point for score submission. It computes
// the score, records it locally, and mirrors it to the hosted boards in
// the background. Ranking feedback returned to the caller is always the
// local result and never waits on the network.
type Orchestrator struct {
	store  *store.Store
	remote *remote.Client
	names  NameProvider
	config *config.LeaderboardConfig
	logger *slog.Logger

	hub        *websocket.Hub
	mirrorHook MirrorHook
	now        func() time.Time
}

// NewOrchestrator creates a submission orchestrator.
func NewOrchestrator(
	store *store.Store,
	remote *remote.Client,
	names NameProvider,
	cfg *config.LeaderboardConfig,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:  store,
		remote: remote,
		names:  names,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetHub attaches a websocket hub; successful submissions are broadcast
// to its subscribers.
func (o *Orchestrator) SetHub(hub *websocket.Hub) {
	o.hub = hub
}

// SetMirrorHook registers a hook observing background mirror outcomes.
// The hook runs on the mirror goroutine after each attempt completes.
func (o *Orchestrator) SetMirrorHook(hook MirrorHook) {
	o.mirrorHook = hook
}

// SubmitScore turns a finished run into a ranked score record. The local
// write is synchronous and its result returned immediately; the remote
// mirror runs in the background and its outcome, including failure, is
// not surfaced here.
func (o *Orchestrator) SubmitScore(ctx context.Context, stats domain.RunStats) (domain.SubmitResult, error) {
	now := o.now()
	entry := domain.ScoreEntry{
		ID:              uuid.New().String(),
		Name:            domain.SanitizeName(o.names.PlayerName()),
		Score:           score.Calculate(stats),
		Floor:           stats.FloorsReached,
		Character:       stats.Character,
		DurationSeconds: stats.DurationSeconds,
		Date:            now.Format(domain.DateLayout),
		Daily:           true,
		SubmittedAt:     now,
	}
	if entry.Floor < 1 {
		entry.Floor = 1
	}
	if entry.Character == "" {
		entry.Character = "unknown"
	}
	if entry.DurationSeconds < 0 {
		entry.DurationSeconds = 0
	}

	result, err := o.store.Submit(entry)
	if err != nil {
		return result, err
	}

	if o.hub != nil {
		o.hub.BroadcastScoreSubmitted(result)
	}

	o.mirror(entry, domain.BoardAllTime)
	if entry.Daily {
		o.mirror(entry, domain.BoardDaily)
	}

	return result, nil
}

// mirror submits the entry to a hosted board without the caller waiting
// on it. The request carries its own context so an ended game session
// cannot cancel an in-flight mirror.
func (o *Orchestrator) mirror(entry domain.ScoreEntry, board domain.BoardType) {
	go func() {
		ok := o.remote.Submit(context.Background(), entry, board)
		if !ok {
			o.logger.Warn("remote mirror failed", "board", board, "score", entry.Score)
		}
		if o.mirrorHook != nil {
			o.mirrorHook(board, ok)
		}
	}()
}

// clampLimit applies the configured display limits.
func (o *Orchestrator) clampLimit(limit int) int {
	if limit <= 0 {
		limit = o.config.DefaultLimit
	}
	if limit > o.config.MaxLimit {
		limit = o.config.MaxLimit
	}
	return limit
}

// DailyLeaderboard returns the local daily board for a date (empty means
// today).
func (o *Orchestrator) DailyLeaderboard(date string, limit int) []domain.ScoreEntry {
	return o.store.DailyBoard(date, o.clampLimit(limit))
}

// AllTimeLeaderboard returns the local all-time board.
func (o *Orchestrator) AllTimeLeaderboard(limit int) []domain.ScoreEntry {
	return o.store.AllTimeBoard(o.clampLimit(limit))
}

// PersonalBests returns the per-character personal best table.
func (o *Orchestrator) PersonalBests() map[string]domain.PersonalBest {
	return o.store.PersonalBests()
}

// CharacterPersonalBest returns the personal best for one character.
func (o *Orchestrator) CharacterPersonalBest(character string) (domain.PersonalBest, bool) {
	return o.store.CharacterPersonalBest(character)
}

// playerName returns the current display name in the same sanitized form
// entries are stored under, so rank lookups match what Submit wrote.
func (o *Orchestrator) playerName() string {
	return domain.SanitizeName(o.names.PlayerName())
}

// PlayerDailyRank returns the current player's daily rank (0 = unranked).
func (o *Orchestrator) PlayerDailyRank(date string) int {
	return o.store.PlayerDailyRank(o.playerName(), date)
}

// PlayerAllTimeRank returns the current player's all-time rank
// (0 = unranked).
func (o *Orchestrator) PlayerAllTimeRank() int {
	return o.store.PlayerAllTimeRank(o.playerName())
}

// PlayerBestEntry returns the current player's highest-scoring entry, or
// nil when the player has none.
func (o *Orchestrator) PlayerBestEntry() *domain.ScoreEntry {
	return o.store.PlayerBestEntry(o.playerName())
}

// OnlineLeaderboard reads the hosted all-time board through the client's
// cache. The error reports degraded availability, never a fault.
func (o *Orchestrator) OnlineLeaderboard(ctx context.Context, limit int) ([]domain.RemoteEntry, int, error) {
	return o.remote.Fetch(ctx, o.clampLimit(limit), domain.BoardAllTime)
}

// DailyOnlineLeaderboard reads today's entries from the hosted daily board.
func (o *Orchestrator) DailyOnlineLeaderboard(ctx context.Context, limit int) ([]domain.RemoteEntry, int, error) {
	return o.remote.DailyFiltered(ctx, o.clampLimit(limit), o.now().Format(domain.DateLayout))
}

// GlobalRank estimates the current player's position on the hosted
// all-time board, using the local best score when the player is not among
// the fetched entries.
func (o *Orchestrator) GlobalRank(ctx context.Context) (int, int, error) {
	name := o.playerName()
	best := 0
	if entry := o.store.PlayerBestEntry(name); entry != nil {
		best = entry.Score
	}
	return o.remote.GlobalRank(ctx, name, best)
}
