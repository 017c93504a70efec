package score

import (
	"github.com/arcade-leaderboard/internal/domain"
)

// Scoring weights. Changing any of these breaks score comparability
// across sessions, so they are fixed.
const (
	floorValue    = 1000
	enemyValue    = 10
	bossValue     = 500
	timeBonusBase = 30000
	timeBonusRate = 50
)

// MaxScore is the sanity ceiling for a plausible run. Scores above it are
// rejected before they leave the process.
const MaxScore = 200000

// Calculate converts run statistics into an integer score. It is a pure
// function: same stats, same score. Out-of-range fields are clamped rather
// than rejected since the run summary producer is trusted local code.
func Calculate(stats domain.RunStats) int {
	floors := stats.FloorsReached
	if floors < 1 {
		floors = 1
	}
	enemies := stats.EnemiesKilled
	if enemies < 0 {
		enemies = 0
	}
	bosses := stats.BossesKilled
	if bosses < 0 {
		bosses = 0
	}
	seconds := stats.DurationSeconds
	if seconds < 0 {
		seconds = 0
	}

	timeBonus := timeBonusBase - seconds*timeBonusRate
	if timeBonus < 0 {
		timeBonus = 0
	}

	return floors*floorValue + enemies*enemyValue + bosses*bossValue + timeBonus
}
