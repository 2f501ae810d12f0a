package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/loom/pkg/component"
)

// writeTimeout bounds a single websocket write so a stalled client cannot
// hold up the loop.
const writeTimeout = 2 * time.Second

// Message is sent to /events subscribers.
type Message struct {
	Type   string                 `json:"type"`
	Commit *component.CommitEvent `json:"commit,omitempty"`
}

// Server is the devtools HTTP inspector for one App.
type Server struct {
	app      *component.App
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader

	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an inspector for app and subscribes to its commits. It must
// be called on the App's loop goroutine, or before the loop runs.
func New(app *component.App, opts ...Option) *Server {
	s := &Server{
		app:     app,
		logger:  app.Logger(),
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local tooling only
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = app.OnCommit(func(ev component.CommitEvent) {
		s.broadcast(Message{Type: "commit", Commit: &ev})
	})
	return s
}

// Handler returns the inspector routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/tree", s.handleTree)
	r.Get("/html", s.handleHTML)
	r.Get("/events", s.handleEvents)
	r.Post("/render", s.handleRender)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var snaps []component.Snapshot
	if err := s.app.Call(r.Context(), func() { snaps = s.app.Snapshot() }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snaps); err != nil {
		s.logger.Warn("devtools: encode tree", "err", err)
	}
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	var html string
	if err := s.app.Call(r.Context(), func() { html = s.app.HTML() }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	deep, _ := strconv.ParseBool(r.URL.Query().Get("deep"))
	found := false
	err := s.app.Call(r.Context(), func() {
		if root := s.app.Root(); root != nil {
			found = true
			root.Render(deep)
		}
	})
	switch {
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case !found:
		http.Error(w, "app is not mounted", http.StatusConflict)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Keep the connection until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// broadcast sends msg to every /events subscriber.
func (s *Server) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.mu.Lock()
			delete(s.clients, client)
			s.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of /events subscribers.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close drops every subscriber and stops listening to commits. It must be
// called on the App's loop goroutine, or when the loop is not running.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
}
