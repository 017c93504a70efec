package websocket

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arcade-leaderboard/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// Buffered outbound frames per connection. A subscriber that cannot
	// keep up has frames dropped rather than stalling every other feed.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The game client connects from file:// and itch-style embeds, so
	// origin checks would only lock out legitimate players.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected leaderboard feed subscriber.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// request is the inbound frame shape: subscribe/unsubscribe to a board
// feed, or a ping.
type request struct {
	Type  string           `json:"type"`
	Board domain.BoardType `json:"board,omitempty"`
}

// queue marshals msg and enqueues it for the write loop, dropping the
// frame when the client's buffer is full.
func (c *Client) queue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) handle(req request) {
	board := req.Board
	switch req.Type {
	case MessageTypeSubscribe:
		if !board.Valid() {
			c.queue(Message{
				Type:      MessageTypeError,
				Data:      map[string]string{"error": "board must be allTime or daily"},
				Timestamp: time.Now(),
			})
			return
		}
		c.hub.Subscribe(c, board)
		c.queue(Message{
			Type:      "subscribed",
			Board:     board,
			Data:      map[string]string{"status": "ok"},
			Timestamp: time.Now(),
		})

	case MessageTypeUnsubscribe:
		if board.Valid() {
			c.hub.Unsubscribe(c, board)
			c.queue(Message{
				Type:      "unsubscribed",
				Board:     board,
				Data:      map[string]string{"status": "ok"},
				Timestamp: time.Now(),
			})
		}

	case MessageTypePing:
		c.queue(Message{Type: MessageTypePong, Timestamp: time.Now()})
	}
}

// readLoop consumes frames from the connection until it errors, keeping
// the read deadline alive via pong handling.
func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			c.queue(Message{
				Type:      MessageTypeError,
				Data:      map[string]string{"error": "invalid message format"},
				Timestamp: time.Now(),
			})
			continue
		}
		c.handle(req)
	}
}

// writeLoop drains the send buffer onto the connection and keeps the
// peer alive with periodic pings.
func (c *Client) writeLoop() {
	pinger := time.NewTicker(pingPeriod)
	defer func() {
		pinger.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-pinger.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and attaches the connection to hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	hub.Register(client)

	go client.writeLoop()
	go client.readLoop()

	hub.logger.Debug("websocket connection opened", "client_id", client.id)
}
