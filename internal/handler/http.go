package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arcade-leaderboard/internal/domain"
	"github.com/arcade-leaderboard/internal/score"
	"github.com/arcade-leaderboard/internal/service"
	"github.com/arcade-leaderboard/internal/websocket"
)

// Handler provides HTTP handlers for the leaderboard API
type Handler struct {
	orchestrator *service.Orchestrator
	hub          *websocket.Hub
	logger       *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orchestrator *service.Orchestrator, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		hub:          hub,
		logger:       logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Run submission
		r.Post("/runs", h.SubmitRun)

		// Local boards
		r.Route("/leaderboards", func(r chi.Router) {
			r.Get("/daily", h.GetDailyLeaderboard)
			r.Get("/alltime", h.GetAllTimeLeaderboard)
			r.Get("/personal", h.GetPersonalBests)
			r.Get("/personal/{character}", h.GetCharacterPersonalBest)
		})

		// Current player
		r.Route("/player", func(r chi.Router) {
			r.Get("/rank/daily", h.GetPlayerDailyRank)
			r.Get("/rank/alltime", h.GetPlayerAllTimeRank)
			r.Get("/best", h.GetPlayerBestEntry)
		})

		// Hosted boards (cached, may degrade)
		r.Route("/online", func(r chi.Router) {
			r.Get("/alltime", h.GetOnlineLeaderboard)
			r.Get("/daily", h.GetDailyOnlineLeaderboard)
			r.Get("/rank", h.GetGlobalRank)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// limitParam parses the limit query parameter (0 = use default)
func limitParam(r *http.Request) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return 0
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// submitRunResponse is the ranking feedback shown on the game-over screen.
type submitRunResponse struct {
	domain.SubmitResult
	FormattedScore string `json:"formatted_score"`
	FormattedTime  string `json:"formatted_time"`
}

// SubmitRun handles a finished run submission
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var stats domain.RunStats
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if stats.FloorsReached < 1 || stats.DurationSeconds < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRun)
		return
	}

	result, err := h.orchestrator.SubmitScore(r.Context(), stats)
	if err != nil {
		h.logger.Error("failed to submit run", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, submitRunResponse{
		SubmitResult:   result,
		FormattedScore: score.FormatScore(result.Entry.Score),
		FormattedTime:  score.FormatDuration(result.Entry.DurationSeconds),
	})
}

// GetDailyLeaderboard returns the local daily board
func (h *Handler) GetDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	entries := h.orchestrator.DailyLeaderboard(date, limitParam(r))
	h.writeSuccess(w, entries)
}

// GetAllTimeLeaderboard returns the local all-time board
func (h *Handler) GetAllTimeLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries := h.orchestrator.AllTimeLeaderboard(limitParam(r))
	h.writeSuccess(w, entries)
}

// GetPersonalBests returns the per-character personal best table
func (h *Handler) GetPersonalBests(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.orchestrator.PersonalBests())
}

// GetCharacterPersonalBest returns one character's personal best
func (h *Handler) GetCharacterPersonalBest(w http.ResponseWriter, r *http.Request) {
	character := chi.URLParam(r, "character")
	if character == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	best, ok := h.orchestrator.CharacterPersonalBest(character)
	if !ok {
		h.writeError(w, http.StatusNotFound, domain.ErrEntryNotFound)
		return
	}

	h.writeSuccess(w, best)
}

// GetPlayerDailyRank returns the current player's daily rank
func (h *Handler) GetPlayerDailyRank(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	rank := h.orchestrator.PlayerDailyRank(date)
	h.writeSuccess(w, map[string]int{"rank": rank})
}

// GetPlayerAllTimeRank returns the current player's all-time rank
func (h *Handler) GetPlayerAllTimeRank(w http.ResponseWriter, r *http.Request) {
	rank := h.orchestrator.PlayerAllTimeRank()
	h.writeSuccess(w, map[string]int{"rank": rank})
}

// GetPlayerBestEntry returns the current player's best-scoring entry
func (h *Handler) GetPlayerBestEntry(w http.ResponseWriter, r *http.Request) {
	entry := h.orchestrator.PlayerBestEntry()
	if entry == nil {
		h.writeError(w, http.StatusNotFound, domain.ErrEntryNotFound)
		return
	}
	h.writeSuccess(w, entry)
}

// onlineBoardResponse carries hosted-board reads. A degraded read keeps a
// 200 status; the error text drives "offline" UI, never a failure page.
type onlineBoardResponse struct {
	Entries []domain.RemoteEntry `json:"entries"`
	Total   int                  `json:"total"`
	Error   string               `json:"error,omitempty"`
}

// GetOnlineLeaderboard returns the hosted all-time board
func (h *Handler) GetOnlineLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, total, err := h.orchestrator.OnlineLeaderboard(r.Context(), limitParam(r))
	resp := onlineBoardResponse{Entries: entries, Total: total}
	if err != nil {
		h.logger.Warn("online leaderboard unavailable", "error", err)
		resp.Entries = []domain.RemoteEntry{}
		resp.Error = err.Error()
	}
	h.writeSuccess(w, resp)
}

// GetDailyOnlineLeaderboard returns today's entries from the hosted daily board
func (h *Handler) GetDailyOnlineLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, total, err := h.orchestrator.DailyOnlineLeaderboard(r.Context(), limitParam(r))
	resp := onlineBoardResponse{Entries: entries, Total: total}
	if err != nil {
		h.logger.Warn("daily online leaderboard unavailable", "error", err)
		resp.Entries = []domain.RemoteEntry{}
		resp.Error = err.Error()
	}
	h.writeSuccess(w, resp)
}

// globalRankResponse carries the hosted global rank estimate.
type globalRankResponse struct {
	Rank  int    `json:"rank"`
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

// GetGlobalRank returns the current player's hosted all-time position
func (h *Handler) GetGlobalRank(w http.ResponseWriter, r *http.Request) {
	rank, total, err := h.orchestrator.GlobalRank(r.Context())
	resp := globalRankResponse{Rank: rank, Total: total}
	if err != nil {
		h.logger.Warn("global rank unavailable", "error", err)
		resp.Error = err.Error()
	}
	h.writeSuccess(w, resp)
}
