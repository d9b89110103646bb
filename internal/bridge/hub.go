// Package bridge connects shell pages to their server-side state over a
// websocket. Each connection owns one embedded view controller and one push
// registration flow; the page only executes the commands it receives.
package bridge

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/faylit/appshell/internal/frame"
	"github.com/faylit/appshell/internal/navbar"
	"github.com/faylit/appshell/internal/pushreg"
	"github.com/faylit/appshell/internal/target"
)

// Path is where the hub is mounted.
const Path = "/ws/frame"

// DefaultCallTimeout bounds page calls that carry no deadline of their own.
const DefaultCallTimeout = 30 * time.Second

// Metrics receives session events. *metrics.Metrics satisfies it.
type Metrics interface {
	frame.Recorder
	pushreg.Recorder
	SessionOpened()
	SessionClosed()
}

// Config wires a Hub.
type Config struct {
	Builder     *target.Builder
	Bar         *navbar.Bar
	LoadTimeout time.Duration

	// Transmitter receives new push subscriptions. Nil, or an empty
	// PublicKey, disables push registration.
	Transmitter   pushreg.Transmitter
	PublicKey     string
	PromptTimeout time.Duration
	CallTimeout   time.Duration

	AllowAllOrigins bool
	Metrics         Metrics
	Log             zerolog.Logger
}

// Hub accepts bridge connections and tracks their sessions.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewHub creates a Hub.
func NewHub(cfg Config) *Hub {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	h := &Hub{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
	if cfg.AllowAllOrigins {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return h
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get(Path, h.handleWebSocket)
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close disconnects every session and waits for them to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	for _, s := range h.sessions {
		s.conn.Close()
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	s := newSession(h.cfg, conn)

	h.mu.Lock()
	h.sessions[s.id] = s
	h.wg.Add(1)
	h.mu.Unlock()
	if h.cfg.Metrics != nil {
		h.cfg.Metrics.SessionOpened()
	}

	defer func() {
		h.mu.Lock()
		delete(h.sessions, s.id)
		h.mu.Unlock()
		if h.cfg.Metrics != nil {
			h.cfg.Metrics.SessionClosed()
		}
		h.wg.Done()
	}()

	s.serve()
}
