// Package webchat is the browser channel adapter: a small WebSocket
// server on its own port, one connection per user.
package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quorumhub/quorum-gateway/internal/channel"
)

// wireMessage is the JSON frame exchanged over the socket
type wireMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	UserID  string `json:"user_id,omitempty"`
}

// Adapter serves WebSocket chat connections
type Adapter struct {
	port     int
	logger   *slog.Logger
	incoming chan *channel.Message
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*websocket.Conn

	server   *http.Server
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a webchat adapter listening on the given port
func New(port int, logger *slog.Logger) *Adapter {
	return &Adapter{
		port:     port,
		logger:   logger,
		incoming: make(chan *channel.Message, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*websocket.Conn),
		done:  make(chan struct{}),
	}
}

func (a *Adapter) Name() string {
	return "webchat"
}

func (a *Adapter) Enabled() bool {
	return a.port > 0
}

// Start runs the WebSocket server until the context ends
func (a *Adapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.handleSocket)
	a.server = &http.Server{Addr: ":" + strconv.Itoa(a.port), Handler: mux}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("WebChat server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		a.server.Shutdown(context.Background())
	}()
	return nil
}

// Stop shuts the server down. The incoming channel stays open so a
// socket reader mid-send can never hit a closed channel; readers stop
// via their own context.
func (a *Adapter) Stop() error {
	if a.server != nil {
		a.server.Shutdown(context.Background())
	}
	a.stopOnce.Do(func() { close(a.done) })
	return nil
}

// deliver enqueues a message unless the adapter has been stopped
func (a *Adapter) deliver(msg *channel.Message) bool {
	select {
	case <-a.done:
		return false
	case a.incoming <- msg:
		return true
	}
}

// Send writes a response frame to the user's connection. A missing
// connection means the user left; that is not an error.
func (a *Adapter) Send(userID string, resp *channel.Response) error {
	a.mu.RLock()
	conn, ok := a.conns[userID]
	a.mu.RUnlock()
	if !ok {
		return nil
	}

	data, err := json.Marshal(wireMessage{Type: "message", Content: resp.Content})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}

func (a *Adapter) handleSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		a.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	a.mu.Lock()
	a.conns[userID] = conn
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.conns, userID)
		a.mu.Unlock()
		conn.Close()
	}()

	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "message" || msg.Content == "" {
			continue
		}
		ok := a.deliver(&channel.Message{
			ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
			Channel:   "webchat",
			UserID:    userID,
			Content:   msg.Content,
			Timestamp: time.Now().Unix(),
		})
		if !ok {
			return
		}
	}
}
