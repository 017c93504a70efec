package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// runStats mirrors the server's run submission payload
type runStats struct {
	FloorsReached   int    `json:"floors_reached"`
	EnemiesKilled   int    `json:"enemies_killed"`
	BossesKilled    int    `json:"bosses_killed"`
	DurationSeconds int    `json:"duration_seconds"`
	Character       string `json:"character"`
}

var characters = []string{"knight", "rogue", "mage", "ranger", "berserker"}

func randomRun() runStats {
	floors := 1 + rand.Intn(12)
	return runStats{
		FloorsReached:   floors,
		EnemiesKilled:   floors*10 + rand.Intn(60),
		BossesKilled:    floors / 3,
		DurationSeconds: floors*45 + rand.Intn(300),
		Character:       characters[rand.Intn(len(characters))],
	}
}

func main() {
	// Command line flags
	serverURL := flag.String("server", "http://localhost:8080", "Leaderboard server base URL")
	runsPerMinute := flag.Int("rate", 30, "Simulated finished runs per minute")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	count := flag.Int("count", 0, "Total runs to submit (0 = unlimited)")
	flag.Parse()

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  Arcade Run Simulator")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Server:     %s\n", *serverURL)
	fmt.Printf("  Runs/min:   %d\n", *runsPerMinute)
	if *count > 0 {
		fmt.Printf("  Total runs: %d\n", *count)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := *serverURL + "/api/v1/runs"

	var successCount, errorCount int64

	submit := func() {
		body, err := json.Marshal(randomRun())
		if err != nil {
			atomic.AddInt64(&errorCount, 1)
			return
		}
		resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("submit error: %v", err)
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			atomic.AddInt64(&successCount, 1)
		} else {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("submit rejected: status %d", resp.StatusCode)
		}
	}

	rate := *runsPerMinute
	if rate <= 0 {
		rate = 30
	}
	interval := time.Minute / time.Duration(rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	submitted := 0
loop:
	for {
		select {
		case <-ticker.C:
			submit()
			submitted++
			if *count > 0 && submitted >= *count {
				break loop
			}
		case <-deadline:
			break loop
		case <-quit:
			break loop
		}
	}

	fmt.Println()
	fmt.Printf("Done. submitted=%d ok=%d errors=%d\n",
		submitted, atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
}
