package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/arcade-leaderboard/internal/config"
	"github.com/arcade-leaderboard/internal/domain"
	"github.com/arcade-leaderboard/internal/score"
)

// The hosted API has no server-side filtering, so daily and global-rank
// reads pull up to this many entries and work on them locally.
const fullBoardLimit = 1000

// Client mirrors score submissions to a hosted leaderboard API and serves
// cached reads of its boards. The hosted service exposes one flat board
// per credential pair and accepts only primitive fields per entry, so
// floor, character and date travel packed into a single text field.
//
// Every public method degrades on failure: submissions report false,
// reads report an empty board plus an error. Nothing is retried; the next
// submission or cache expiry is the retry.
type Client struct {
	baseURL  string
	keys     map[domain.BoardType]config.BoardKeys
	http     *http.Client
	timeout  time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[domain.BoardType]*cacheEntry
	now   func() time.Time
}

// cacheEntry is one board's cached read, replaced wholesale on refresh
// and dropped on a successful submission to that board.
type cacheEntry struct {
	entries   []domain.RemoteEntry
	fetchedAt time.Time
}

// NewClient creates a client for the hosted leaderboard API. The service
// accepts plain HTTP only, so when a relay URL is configured all outbound
// requests are routed through it.
func NewClient(cfg *config.RemoteConfig, logger *slog.Logger) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.RelayURL != "" {
		relay, err := url.Parse(cfg.RelayURL)
		if err != nil {
			return nil, fmt.Errorf("parsing relay URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(relay)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		keys: map[domain.BoardType]config.BoardKeys{
			domain.BoardAllTime: cfg.AllTimeBoard,
			domain.BoardDaily:   cfg.DailyBoard,
		},
		http:     &http.Client{Transport: transport},
		timeout:  cfg.Timeout,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
		cache:    make(map[domain.BoardType]*cacheEntry),
		now:      time.Now,
	}, nil
}

// Submit mirrors one entry to the given board. It reports whether the
// mirror succeeded and never returns an error; invalid entries and
// transport failures are logged and reported as false.
func (c *Client) Submit(ctx context.Context, entry domain.ScoreEntry, board domain.BoardType) bool {
	keys, ok := c.keys[board]
	if !ok || keys.PrivateKey == "" {
		c.logger.Warn("no credentials for remote board", "board", board)
		return false
	}

	if entry.Score <= 0 || entry.Score > score.MaxScore {
		c.logger.Warn("rejecting implausible score for remote submit",
			"score", entry.Score, "name", entry.Name)
		return false
	}
	if entry.Floor < 1 {
		c.logger.Warn("rejecting entry without a reached floor", "name", entry.Name)
		return false
	}

	name := domain.SanitizeName(entry.Name)
	text := encodeText(entry.Floor, entry.Character, entry.Date)
	endpoint := fmt.Sprintf("%s/%s/add/%s/%d/%d/%s",
		c.baseURL, keys.PrivateKey,
		url.PathEscape(name), entry.Score, entry.DurationSeconds,
		url.PathEscape(text))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("building remote submit request failed", "error", err)
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote submit failed", "board", board, "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("remote submit rejected", "board", board, "status", resp.StatusCode)
		return false
	}

	// The board changed upstream; force the next read to refetch.
	c.ClearCache(board)
	return true
}

// Fetch returns up to limit entries from the given board along with the
// board's total entry count. Reads within the cache TTL are served from
// memory; failures return an empty board and the reason.
func (c *Client) Fetch(ctx context.Context, limit int, board domain.BoardType) ([]domain.RemoteEntry, int, error) {
	if limit <= 0 {
		limit = 10
	}

	c.mu.Lock()
	if cached, ok := c.cache[board]; ok && c.now().Sub(cached.fetchedAt) < c.cacheTTL {
		entries, total := sliceBoard(cached.entries, limit)
		c.mu.Unlock()
		return entries, total, nil
	}
	c.mu.Unlock()

	keys, ok := c.keys[board]
	if !ok || keys.PublicKey == "" {
		return nil, 0, fmt.Errorf("%w: no credentials for board %q", domain.ErrBoardNotFound, board)
	}

	all, err := c.fetchBoard(ctx, keys.PublicKey)
	if err != nil {
		return nil, 0, err
	}

	c.mu.Lock()
	c.cache[board] = &cacheEntry{entries: all, fetchedAt: c.now()}
	c.mu.Unlock()

	entries, total := sliceBoard(all, limit)
	return entries, total, nil
}

func sliceBoard(all []domain.RemoteEntry, limit int) ([]domain.RemoteEntry, int) {
	entries := all
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]domain.RemoteEntry(nil), entries...), len(all)
}

// fetchBoard retrieves and decodes a full board from the hosted API.
func (c *Client) fetchBoard(ctx context.Context, publicKey string) ([]domain.RemoteEntry, error) {
	endpoint := fmt.Sprintf("%s/%s/json", c.baseURL, publicKey)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building remote fetch request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrRemoteTimeout
		}
		return nil, fmt.Errorf("fetching remote board: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrRemoteResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrRemoteTimeout
		}
		return nil, fmt.Errorf("reading remote board: %w", err)
	}

	return parseBoard(body)
}

// rawEntry mirrors the hosted API's flat per-entry schema. Numeric fields
// arrive either as numbers or as quoted strings depending on the entry.
type rawEntry struct {
	Name    string      `json:"name"`
	Score   json.Number `json:"score"`
	Seconds json.Number `json:"seconds"`
	Text    string      `json:"text"`
}

type boardPayload struct {
	Leaderboard struct {
		Entry json.RawMessage `json:"entry"`
	} `json:"leaderboard"`
}

// parseBoard decodes the hosted API's response. The entry field is an
// array in general but a bare object when the board holds exactly one
// entry, and null when it is empty.
func parseBoard(body []byte) ([]domain.RemoteEntry, error) {
	var payload boardPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteResponse, err)
	}

	raw := payload.Leaderboard.Entry
	if len(raw) == 0 || string(raw) == "null" {
		return []domain.RemoteEntry{}, nil
	}

	var rawEntries []rawEntry
	if err := json.Unmarshal(raw, &rawEntries); err != nil {
		var single rawEntry
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteResponse, err)
		}
		rawEntries = []rawEntry{single}
	}

	entries := make([]domain.RemoteEntry, 0, len(rawEntries))
	for _, r := range rawEntries {
		sc, _ := r.Score.Int64()
		secs, _ := r.Seconds.Int64()
		floor, character, date := decodeText(r.Text)
		entries = append(entries, domain.RemoteEntry{
			Name:            r.Name,
			Score:           int(sc),
			DurationSeconds: int(secs),
			Floor:           floor,
			Character:       character,
			Date:            date,
		})
	}
	return entries, nil
}

// DailyFiltered returns up to limit remote daily entries whose date equals
// today. The hosted service cannot filter, so the full board is fetched
// and filtered here.
func (c *Client) DailyFiltered(ctx context.Context, limit int, today string) ([]domain.RemoteEntry, int, error) {
	if limit <= 0 {
		limit = 10
	}

	all, _, err := c.Fetch(ctx, fullBoardLimit, domain.BoardDaily)
	if err != nil {
		return nil, 0, err
	}

	var filtered []domain.RemoteEntry
	for _, e := range all {
		if e.Date == today {
			filtered = append(filtered, e)
		}
	}

	total := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

// GlobalRank locates the named player on the hosted all-time board. When
// the player is present the exact 1-indexed position is returned; otherwise
// the rank is estimated from how many fetched entries outscore playerScore,
// counting the player as an extra board member.
func (c *Client) GlobalRank(ctx context.Context, playerName string, playerScore int) (int, int, error) {
	entries, total, err := c.Fetch(ctx, fullBoardLimit, domain.BoardAllTime)
	if err != nil {
		return 0, 0, err
	}

	name := domain.SanitizeName(playerName)
	for i, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return i + 1, total, nil
		}
	}

	higher := 0
	for _, e := range entries {
		if e.Score > playerScore {
			higher++
		}
	}
	return higher + 1, total + 1, nil
}

// ClearCache drops the cached reads for the given boards, or for all
// boards when none are named.
func (c *Client) ClearCache(boards ...domain.BoardType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(boards) == 0 {
		c.cache = make(map[domain.BoardType]*cacheEntry)
		return
	}
	for _, board := range boards {
		delete(c.cache, board)
	}
}
