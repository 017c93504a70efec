package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/arcade-leaderboard/internal/domain"
)

// Message types
const (
	MessageTypeScoreSubmitted = "score_submitted"
	MessageTypeSubscribe      = "subscribe"
	MessageTypeUnsubscribe    = "unsubscribe"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeError          = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string           `json:"type"`
	Board     domain.BoardType `json:"board,omitempty"`
	Data      interface{}      `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Hub maintains the set of active clients and pushes new score
// submissions to the board feeds they subscribed to.
type Hub struct {
	// Subscribers by board feed
	feeds map[domain.BoardType]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest

	mu     sync.RWMutex
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client *Client
	board  domain.BoardType
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		feeds:       make(map[domain.BoardType]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("websocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				for board, clients := range h.feeds {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.feeds, board)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.feeds[req.board]; !ok {
				h.feeds[req.board] = make(map[*Client]bool)
			}
			h.feeds[req.board][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "board", req.board)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.feeds[req.board]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.feeds, req.board)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "board", req.board)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to subscribed clients, or to everyone
// when it carries no board.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	if message.Board != "" {
		if clients, ok := h.feeds[message.Board]; ok {
			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
		}
		return
	}

	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

// BroadcastScoreSubmitted pushes a freshly ranked submission to the
// all-time feed, and to the daily feed when the entry counts for today's
// board.
func (h *Hub) BroadcastScoreSubmitted(result domain.SubmitResult) {
	boards := []domain.BoardType{domain.BoardAllTime}
	if result.Entry.Daily {
		boards = append(boards, domain.BoardDaily)
	}

	for _, board := range boards {
		message := &Message{
			Type:      MessageTypeScoreSubmitted,
			Board:     board,
			Data:      result,
			Timestamp: time.Now(),
		}
		select {
		case h.broadcast <- message:
		default:
			h.logger.Warn("broadcast channel full, dropping message")
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a board feed
func (h *Hub) Subscribe(client *Client, board domain.BoardType) {
	h.subscribe <- &subscriptionRequest{client: client, board: board}
}

// Unsubscribe removes a client from a board feed
func (h *Hub) Unsubscribe(client *Client, board domain.BoardType) {
	h.unsubscribe <- &subscriptionRequest{client: client, board: board}
}

// GetSubscriberCount returns the number of subscribers for a board feed
func (h *Hub) GetSubscriberCount(board domain.BoardType) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.feeds[board]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
