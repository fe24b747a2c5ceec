package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/blogfront/pkg/upstream"
)

// MessageType identifies a feed message.
type MessageType string

const (
	TypePostCreated MessageType = "post.created"
)

// Message is sent to subscribers as JSON.
type Message struct {
	Type MessageType    `json:"type"`
	Post *upstream.Post `json:"post,omitempty"`
}

// Options configures a Hub.
type Options struct {
	// BufferSize is the per-subscriber queue length. Default: 16.
	BufferSize int

	// WriteTimeout bounds a single frame write. Default: 10s.
	WriteTimeout time.Duration

	// CheckOrigin validates the upgrade request. Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// OnSubscribers is called with the subscriber count whenever it changes.
	OnSubscribers func(n int)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans published posts out to WebSocket subscribers.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	closed   bool
	upgrader websocket.Upgrader

	bufferSize    int
	writeTimeout  time.Duration
	onSubscribers func(int)
	logger        *slog.Logger
}

// NewHub creates a Hub.
func NewHub(opts Options) *Hub {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 16
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = SameOriginCheck
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		bufferSize:    opts.BufferSize,
		writeTimeout:  opts.WriteTimeout,
		onSubscribers: opts.OnSubscribers,
		logger:        opts.Logger.With("component", "feed"),
	}
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}

// ServeHTTP upgrades the request and holds the connection until the client
// goes away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("upgrade failed", "error", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, h.bufferSize)}
	if !h.add(s) {
		conn.Close()
		return
	}

	go h.writeLoop(s)

	// Subscribers never send anything meaningful; reading only detects
	// disconnects and handles control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(s)
}

func (h *Hub) writeLoop(s *subscriber) {
	defer s.conn.Close()
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(s)
			return
		}
	}
	s.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

func (h *Hub) add(s *subscriber) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.notify(n)
	return true
}

// remove drops s and closes its queue. Safe to call more than once.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, s)
	close(s.send)
	n := len(h.subs)
	h.mu.Unlock()

	h.notify(n)
}

func (h *Hub) notify(n int) {
	if h.onSubscribers != nil {
		h.onSubscribers(n)
	}
}

// Publish sends a post.created message to every subscriber. It never
// blocks; subscribers with a full queue are dropped.
func (h *Hub) Publish(post upstream.Post) {
	h.broadcast(Message{Type: TypePostCreated, Post: &post})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode feed message", "error", err)
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for s := range h.subs {
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.logger.Warn("dropping slow feed subscriber")
		h.remove(s)
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Run blocks until ctx is done, then closes every subscriber. A closed hub
// rejects new connections.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()

	h.notify(0)
}
