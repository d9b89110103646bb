package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/faylit/appshell/internal/frame"
	"github.com/faylit/appshell/internal/navbar"
	"github.com/faylit/appshell/internal/push"
	"github.com/faylit/appshell/internal/pushreg"
)

// ErrSessionClosed is returned by page calls after the connection is gone.
var ErrSessionClosed = errors.New("bridge session closed")

const (
	maxMessageSize = 64 << 10
	writeWait      = 10 * time.Second
)

// CallError is a failure reported by the page while executing a call.
type CallError struct {
	Method  string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("page call %s: %s", e.Method, e.Message)
}

// Session is the server side of one shell page. It implements
// frame.Document and pushreg.Platform on top of the websocket.
type Session struct {
	id   string
	cfg  Config
	conn *websocket.Conn
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
	href   *string
	calls  map[string]chan reply

	// Owned by the serve goroutine.
	ctrl        *frame.Controller
	unsubscribe func()
	firstLoad   chan struct{}
	loaded      bool

	wg sync.WaitGroup
}

var (
	_ frame.Document   = (*Session)(nil)
	_ pushreg.Platform = (*Session)(nil)
	_ pushreg.Notifier = (*Session)(nil)
)

func newSession(cfg Config, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &Session{
		id:        id,
		cfg:       cfg,
		conn:      conn,
		log:       cfg.Log.With().Str("session", id[:8]).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		calls:     make(map[string]chan reply),
		firstLoad: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) serve() {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.log.Debug().Msg("session opened")

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("websocket read")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("invalid message format")
			continue
		}
		s.dispatch(msg)
	}
}

// dispatch handles one message. A panic ends the message, not the session.
func (s *Session) dispatch(msg inbound) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("type", msg.Type).Msg("handling message")
		}
	}()

	switch msg.Type {
	case msgReady:
		s.handleReady(msg.Path)
	case msgLoad:
		s.handleLoad(msg.Generation, msg.Href)
	case msgNav:
		s.handleNav(msg.Index)
	case msgGo:
		if s.ctrl != nil {
			s.follow(s.cfg.Bar.IntentFor(msg.Path))
		}
	case msgReply:
		s.handleReply(msg)
	default:
		s.log.Warn().Str("type", msg.Type).Msg("unknown message type")
	}
}

func (s *Session) handleReady(path string) {
	if s.ctrl != nil {
		s.ctrl.SetInitialTarget(path)
		return
	}

	opts := []frame.Option{
		frame.WithLogger(s.log.With().Str("component", "frame").Logger()),
	}
	if s.cfg.LoadTimeout > 0 {
		opts = append(opts, frame.WithLoadTimeout(s.cfg.LoadTimeout))
	}
	if s.cfg.Metrics != nil {
		opts = append(opts, frame.WithRecorder(s.cfg.Metrics))
	}

	s.ctrl = frame.New(s.cfg.Builder, s, path, opts...)
	s.unsubscribe = s.ctrl.Subscribe(s.sendState)
	s.sendState(s.ctrl.Snapshot())

	s.startPushRegistration()
}

func (s *Session) handleLoad(generation uint64, href *string) {
	if s.ctrl == nil {
		return
	}
	s.mu.Lock()
	s.href = href
	s.mu.Unlock()

	if s.ctrl.LoadComplete(generation) && !s.loaded {
		s.loaded = true
		close(s.firstLoad)
	}
}

func (s *Session) handleNav(index int) {
	if s.ctrl == nil {
		return
	}
	intent, err := s.cfg.Bar.Select(index)
	if err != nil {
		s.log.Warn().Err(err).Msg("navigation item")
		return
	}
	s.follow(intent)
}

// follow executes a navigation bar intent. External intents never touch the
// frame.
func (s *Session) follow(intent navbar.Intent) {
	switch intent.Kind {
	case navbar.IntentOpenExternal:
		s.send(openExternalMessage{Type: msgOpenExternal, URL: intent.ExternalURL, Path: intent.Path})
	default:
		s.ctrl.Navigate(intent.Path)
	}
}

func (s *Session) handleReply(msg inbound) {
	s.mu.Lock()
	ch, ok := s.calls[msg.ID]
	delete(s.calls, msg.ID)
	s.mu.Unlock()
	if !ok {
		s.log.Debug().Str("id", msg.ID).Msg("reply for unknown call")
		return
	}
	ch <- reply{result: msg.Result, err: msg.Error}
}

func (s *Session) startPushRegistration() {
	if s.cfg.Transmitter == nil || s.cfg.PublicKey == "" {
		return
	}

	opts := []pushreg.Option{
		pushreg.WithLogger(s.log.With().Str("component", "pushreg").Logger()),
		pushreg.WithPromptTimeout(s.cfg.PromptTimeout),
	}
	if s.cfg.Metrics != nil {
		opts = append(opts, pushreg.WithRecorder(s.cfg.Metrics))
	}
	flow := pushreg.New(s, s.cfg.Transmitter, s, s.cfg.PublicKey, opts...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		outcome, err := flow.Run(s.ctx, s.firstLoad)
		s.log.Info().Str("outcome", outcome.String()).Err(err).Msg("push registration")
	}()
}

func (s *Session) close() {
	s.cancel()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.ctrl != nil {
		s.unsubscribe()
		s.ctrl.Close()
	}
	s.wg.Wait()
	s.conn.Close()
	s.log.Debug().Msg("session closed")
}

func (s *Session) send(v any) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(v); err != nil {
		if s.ctx.Err() != nil {
			return ErrSessionClosed
		}
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

func (s *Session) sendState(snap frame.Snapshot) {
	if err := s.send(stateMessage{Type: msgState, Snapshot: snap, Nav: s.cfg.Bar.View(snap.ObservedPath)}); err != nil {
		s.log.Debug().Err(err).Msg("sending state")
	}
}

// Assign implements frame.Document.
func (s *Session) Assign(address string, generation uint64) error {
	return s.send(navigateMessage{Type: msgNavigate, Target: address, Generation: generation, Mode: modeAssign})
}

// NavigateInPlace implements frame.Document.
func (s *Session) NavigateInPlace(address string, generation uint64) error {
	return s.send(navigateMessage{Type: msgNavigate, Target: address, Generation: generation, Mode: modeInPlace})
}

// Location implements frame.Document with the href the page reported in its
// last load message; the page sends null when the frame is cross-origin.
func (s *Session) Location() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.href == nil {
		return "", false
	}
	return *s.href, true
}

// Notify implements pushreg.Notifier.
func (s *Session) Notify(n pushreg.Notice) {
	if err := s.send(noticeMessage{Type: msgNotice, Notice: n}); err != nil {
		s.log.Debug().Err(err).Msg("sending notice")
	}
}

// call runs method on the page and decodes its result into out.
func (s *Session) call(ctx context.Context, method string, params, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	ch := make(chan reply, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.calls[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.calls, id)
		s.mu.Unlock()
	}()

	if err := s.send(callMessage{Type: msgCall, ID: id, Method: method, Params: params}); err != nil {
		return err
	}

	select {
	case r := <-ch:
		if r.err != "" {
			return &CallError{Method: method, Message: r.err}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(r.result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Capabilities implements pushreg.Platform.
func (s *Session) Capabilities(ctx context.Context) (pushreg.Capabilities, error) {
	var caps pushreg.Capabilities
	err := s.call(ctx, "capabilities", nil, &caps)
	return caps, err
}

// RegisterWorker implements pushreg.Platform.
func (s *Session) RegisterWorker(ctx context.Context, scriptURL string) error {
	return s.call(ctx, "registerWorker", map[string]string{"url": scriptURL}, nil)
}

// Permission implements pushreg.Platform.
func (s *Session) Permission(ctx context.Context) (pushreg.Permission, error) {
	var p pushreg.Permission
	err := s.call(ctx, "permission", nil, &p)
	return p, err
}

// RequestPermission implements pushreg.Platform.
func (s *Session) RequestPermission(ctx context.Context) (pushreg.Permission, error) {
	var p pushreg.Permission
	err := s.call(ctx, "requestPermission", nil, &p)
	return p, err
}

// Subscribe implements pushreg.Platform. The key travels as standard base64.
func (s *Session) Subscribe(ctx context.Context, applicationServerKey []byte) (push.Subscription, error) {
	var sub push.Subscription
	err := s.call(ctx, "subscribe", map[string][]byte{"key": applicationServerKey}, &sub)
	return sub, err
}
