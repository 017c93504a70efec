package domain

import (
	"time"
)

// BoardType identifies one of the two mirrored remote boards.
type BoardType string

const (
	BoardAllTime BoardType = "allTime"
	BoardDaily   BoardType = "daily"
)

// Valid reports whether b names one of the two known boards.
func (b BoardType) Valid() bool {
	return b == BoardAllTime || b == BoardDaily
}

// Board caps applied on every local write.
const (
	MaxDailyEntries   = 100
	MaxAllTimeEntries = 100
)

// DateLayout is the calendar-date format used for daily-board bucketing.
const DateLayout = "2006-01-02"

// RunStats describes a finished play session as reported by the run
// summary producer.
type RunStats struct {
	FloorsReached   int    `json:"floors_reached"`
	EnemiesKilled   int    `json:"enemies_killed"`
	BossesKilled    int    `json:"bosses_killed"`
	DurationSeconds int    `json:"duration_seconds"`
	Character       string `json:"character"`
}

// ScoreEntry is one submitted run record. Entries are immutable after
// creation; the ID is the identity used for rank lookup after sort/trim.
type ScoreEntry struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Score           int       `json:"score"`
	Floor           int       `json:"floor"`
	Character       string    `json:"character"`
	DurationSeconds int       `json:"duration_seconds"`
	Date            string    `json:"date"`
	Daily           bool      `json:"daily"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// NoBestTime marks a PersonalBest with no qualifying timed run yet. A
// zero value cannot serve as the marker because a 0-second run that
// reached floor 3 is itself a legitimate best time.
const NoBestTime = -1

// PersonalBest tracks per-character running maxima. BestTimeSeconds is a
// running minimum updated only by runs that reached floor 3 or deeper;
// NoBestTime means no qualifying run has been recorded yet.
type PersonalBest struct {
	BestScore       int `json:"best_score"`
	BestFloor       int `json:"best_floor"`
	BestTimeSeconds int `json:"best_time_seconds"`
}

// SubmitResult is the local ranking outcome returned to the caller
// immediately, before any remote mirroring happens.
type SubmitResult struct {
	Entry             ScoreEntry `json:"entry"`
	Rank              int        `json:"rank"`
	DailyRank         int        `json:"daily_rank"`
	IsNewBest         bool       `json:"is_new_best"`
	IsNewPersonalBest bool       `json:"is_new_personal_best"`
}

// RemoteEntry is a decoded entry from the hosted leaderboard API.
type RemoteEntry struct {
	Name            string `json:"name"`
	Score           int    `json:"score"`
	DurationSeconds int    `json:"duration_seconds"`
	Floor           int    `json:"floor"`
	Character       string `json:"character"`
	Date            string `json:"date"`
}
