package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/arcade-leaderboard/internal/domain"
)

// Daily boards older than this are removed by CleanupOldDailyBoards.
const retentionDays = 30

// record is the single durable document holding all ranking data.
type record struct {
	Daily    map[string][]domain.ScoreEntry `json:"daily"`
	AllTime  []domain.ScoreEntry            `json:"allTime"`
	Personal map[string]domain.PersonalBest `json:"personal"`
}

func emptyRecord() *record {
	return &record{
		Daily:    make(map[string][]domain.ScoreEntry),
		AllTime:  []domain.ScoreEntry{},
		Personal: make(map[string]domain.PersonalBest),
	}
}

// Store is the local leaderboard store. It owns a single JSON document on
// disk and serializes all access through a mutex; every write persists the
// whole document before returning. The file is assumed to belong to this
// process alone.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New creates a store persisting to the given file path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// load reads the persisted record. A missing or corrupt file is recovered
// as an empty record, never an error.
func (s *Store) load() *record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read leaderboard file, starting empty", "path", s.path, "error", err)
		}
		return emptyRecord()
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("corrupt leaderboard file, starting empty", "path", s.path, "error", err)
		return emptyRecord()
	}

	if rec.Daily == nil {
		rec.Daily = make(map[string][]domain.ScoreEntry)
	}
	if rec.Personal == nil {
		rec.Personal = make(map[string]domain.PersonalBest)
	}
	return &rec
}

// save writes the record atomically: temp file in the same directory, then
// rename over the target.
func (s *Store) save(rec *record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding leaderboard record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating leaderboard directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leaderboard-*.json")
	if err != nil {
		return fmt.Errorf("creating temp leaderboard file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing leaderboard record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp leaderboard file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing leaderboard file: %w", err)
	}
	return nil
}

// sortBoard orders a board descending by score. The sort is stable so that
// ties keep their insertion order.
func sortBoard(entries []domain.ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// rankOf returns the 1-indexed position of the entry with the given ID, or
// 0 when the entry was trimmed out of the board.
func rankOf(entries []domain.ScoreEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}

// Submit records a finished run on the daily and all-time boards, updates
// the per-character personal bests, and persists the result in one write.
func (s *Store) Submit(entry domain.ScoreEntry) (domain.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.load()
	result := domain.SubmitResult{Entry: entry}

	if entry.Daily {
		board := append(rec.Daily[entry.Date], entry)
		sortBoard(board)
		if len(board) > domain.MaxDailyEntries {
			board = board[:domain.MaxDailyEntries]
		}
		rec.Daily[entry.Date] = board
		result.DailyRank = rankOf(board, entry.ID)
	}

	rec.AllTime = append(rec.AllTime, entry)
	sortBoard(rec.AllTime)
	if len(rec.AllTime) > domain.MaxAllTimeEntries {
		rec.AllTime = rec.AllTime[:domain.MaxAllTimeEntries]
	}
	result.Rank = rankOf(rec.AllTime, entry.ID)

	best, had := rec.Personal[entry.Character]
	if !had {
		best.BestTimeSeconds = domain.NoBestTime
	}
	if entry.Score > best.BestScore {
		result.IsNewBest = true
		result.IsNewPersonalBest = true
		best.BestScore = entry.Score
	}
	if entry.Floor > best.BestFloor {
		result.IsNewPersonalBest = true
		best.BestFloor = entry.Floor
	}
	// A faster clear only counts once the run got reasonably deep.
	if entry.Floor >= 3 && (best.BestTimeSeconds == domain.NoBestTime || entry.DurationSeconds < best.BestTimeSeconds) {
		result.IsNewPersonalBest = true
		best.BestTimeSeconds = entry.DurationSeconds
	}
	rec.Personal[entry.Character] = best

	if err := s.save(rec); err != nil {
		return result, err
	}
	return result, nil
}

// DailyBoard returns up to limit entries for the given date. An empty date
// means today; a non-positive limit defaults to 10.
func (s *Store) DailyBoard(date string, limit int) []domain.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	if limit <= 0 {
		limit = 10
	}

	board := s.load().Daily[date]
	if len(board) > limit {
		board = board[:limit]
	}
	return append([]domain.ScoreEntry(nil), board...)
}

// AllTimeBoard returns up to limit entries from the all-time board.
func (s *Store) AllTimeBoard(limit int) []domain.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	board := s.load().AllTime
	if len(board) > limit {
		board = board[:limit]
	}
	return append([]domain.ScoreEntry(nil), board...)
}

// PersonalBests returns the per-character personal best table.
func (s *Store) PersonalBests() map[string]domain.PersonalBest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.PersonalBest)
	for character, best := range s.load().Personal {
		out[character] = best
	}
	return out
}

// CharacterPersonalBest returns the personal best for one character.
func (s *Store) CharacterPersonalBest(character string) (domain.PersonalBest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best, ok := s.load().Personal[character]
	return best, ok
}

// PlayerDailyRank returns the best 1-indexed daily rank held by the named
// player on the given date (empty date means today), or 0 when absent.
func (s *Store) PlayerDailyRank(name, date string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	return bestRankByName(s.load().Daily[date], name)
}

// PlayerAllTimeRank returns the best 1-indexed all-time rank held by the
// named player, or 0 when absent.
func (s *Store) PlayerAllTimeRank(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return bestRankByName(s.load().AllTime, name)
}

// PlayerBestEntry returns the named player's highest-scoring all-time
// entry, or nil when the player has none on the board.
func (s *Store) PlayerBestEntry(name string) *domain.ScoreEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.load().AllTime {
		if e.Name == name {
			entry := e
			return &entry
		}
	}
	return nil
}

func bestRankByName(entries []domain.ScoreEntry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i + 1
		}
	}
	return 0
}

// CleanupOldDailyBoards deletes every daily board older than the retention
// window. It is idempotent and safe to run on any schedule.
func (s *Store) CleanupOldDailyBoards() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.load()
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	removed := 0
	for date := range rec.Daily {
		day, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			// Unparseable buckets only accumulate; drop them too.
			s.logger.Warn("dropping daily board with malformed date", "date", date)
			delete(rec.Daily, date)
			removed++
			continue
		}
		if day.Before(cutoff) {
			delete(rec.Daily, date)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.save(rec); err != nil {
		return removed, err
	}
	return removed, nil
}
