// Package frame keeps the shell's notion of "where the storefront is" in
// step with the embedded document, whose location is often unreadable.
package frame

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/faylit/appshell/internal/target"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithRecorder reports navigations and load outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.rec = r
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for the fallback timer.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) {
		if f != nil {
			c.afterFunc = f
		}
	}
}

// Controller is the embedded view controller. Every navigation bumps a
// generation; load signals and timer expiries carrying an older generation
// are discarded.
type Controller struct {
	builder     *target.Builder
	doc         Document
	loadTimeout time.Duration
	afterFunc   AfterFunc
	rec         Recorder
	log         zerolog.Logger

	mu        sync.Mutex
	gen       uint64
	address   string
	observed  string
	confirmed bool
	loading   bool
	state     State
	timer     Timer
	closed    bool
	seq       uint64

	// pubMu orders delivery; snapshots older than lastSeq are dropped.
	pubMu   sync.Mutex
	lastSeq uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates a controller and immediately assigns the target for
// initialPath, so the controller starts in the Loading state.
func New(b *target.Builder, doc Document, initialPath string, opts ...Option) *Controller {
	c := &Controller{
		builder:     b,
		doc:         doc,
		loadTimeout: DefaultLoadTimeout,
		afterFunc:   stdAfterFunc,
		rec:         nopRecorder{},
		log:         zerolog.Nop(),
		subs:        make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	c.assignLocked(initialPath, NavInitial)
	c.mu.Unlock()
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Calls are serialized in state order and fn must not call back into the
// Controller. The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// SetInitialTarget points the frame at path because the host route changed,
// e.g. on a deep link. The observed path is set optimistically.
func (c *Controller) SetInitialTarget(path string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.assignLocked(path, NavInitial)
	snap, seq := c.changedLocked()
	c.mu.Unlock()

	c.publish(snap, seq)
}

// Navigate moves the frame to path on behalf of the navigation bar. The
// observed path changes immediately so the clicked item highlights without
// waiting for the document. When the address is unchanged the current
// document is asked to navigate in place; failures there are absorbed.
func (c *Controller) Navigate(path string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	address := c.builder.Build(path)
	if !target.SameAddress(address, c.address) {
		c.assignLocked(path, NavAssign)
		snap, seq := c.changedLocked()
		c.mu.Unlock()
		c.publish(snap, seq)
		return
	}

	c.gen++
	gen := c.gen
	c.predictLocked(path, address)
	c.armTimerLocked(gen)
	c.rec.Navigation(NavInPlace)

	if err := c.doc.NavigateInPlace(address, gen); err != nil {
		c.log.Debug().Err(err).Str("address", address).Msg("in-place navigation failed, reassigning document")
		if err := c.doc.Assign(address, gen); err != nil {
			c.log.Warn().Err(err).Str("address", address).Msg("assigning document")
		}
	}
	snap, seq := c.changedLocked()
	c.mu.Unlock()

	c.publish(snap, seq)
}

// LoadComplete reconciles the observed path after the document for
// generation finished loading. It reports false when the signal belongs to
// a superseded navigation and was ignored.
func (c *Controller) LoadComplete(generation uint64) bool {
	c.mu.Lock()
	if c.closed || generation != c.gen {
		c.mu.Unlock()
		c.rec.Load(OutcomeStale)
		c.log.Debug().Uint64("generation", generation).Msg("discarding stale load signal")
		return false
	}

	c.stopTimerLocked()
	c.loading = false
	c.state = Loaded

	outcome := OutcomeFallback
	if loc, ok := c.readLocation(); ok {
		if path, err := c.builder.ObservedPath(loc); err == nil {
			c.observed = path
			c.confirmed = true
			outcome = OutcomeConfirmed
		}
	}
	if outcome == OutcomeFallback {
		if path, err := c.builder.ObservedPath(c.address); err == nil {
			c.observed = path
		}
		c.confirmed = false
	}
	snap, seq := c.changedLocked()
	c.mu.Unlock()

	c.rec.Load(outcome)
	c.publish(snap, seq)
	return true
}

// Close stops the fallback timer and detaches all subscribers. Signals that
// arrive afterwards are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.subMu.Lock()
	c.subs = make(map[int]func(Snapshot))
	c.subMu.Unlock()
}

// readLocation queries the document; a panicking implementation counts as
// an unreadable location.
func (c *Controller) readLocation() (loc string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Debug().Interface("panic", r).Msg("reading document location")
			loc, ok = "", false
		}
	}()
	return c.doc.Location()
}

func (c *Controller) assignLocked(path string, kind NavigationKind) {
	c.gen++
	gen := c.gen
	c.address = c.builder.Build(path)
	c.predictLocked(path, c.address)
	c.armTimerLocked(gen)
	c.rec.Navigation(kind)

	if err := c.doc.Assign(c.address, gen); err != nil {
		c.log.Warn().Err(err).Str("address", c.address).Msg("assigning document")
	}
}

// predictLocked derives the optimistic observed path from the address being
// loaded, so it has the same form the load reconciliation produces.
func (c *Controller) predictLocked(path, address string) {
	observed, err := c.builder.ObservedPath(address)
	if err != nil {
		observed = strings.TrimLeft(strings.TrimSpace(path), "/")
	}
	c.observed = observed
	c.confirmed = false
	c.loading = true
	c.state = Loading
}

func (c *Controller) armTimerLocked(gen uint64) {
	c.stopTimerLocked()
	c.timer = c.afterFunc(c.loadTimeout, func() { c.loadTimedOut(gen) })
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) loadTimedOut(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || !c.loading {
		c.mu.Unlock()
		return
	}
	c.loading = false
	c.state = Idle
	c.timer = nil
	snap, seq := c.changedLocked()
	c.mu.Unlock()

	c.rec.Load(OutcomeTimeout)
	c.log.Debug().Uint64("generation", gen).Msg("load signal not received, clearing loading state")
	c.publish(snap, seq)
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Target:       c.address,
		ObservedPath: c.observed,
		Confirmed:    c.confirmed,
		Loading:      c.loading,
		State:        c.state,
		Generation:   c.gen,
	}
}

// changedLocked numbers a state change and returns its snapshot.
func (c *Controller) changedLocked() (Snapshot, uint64) {
	c.seq++
	return c.snapshotLocked(), c.seq
}

func (c *Controller) publish(snap Snapshot, seq uint64) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if seq <= c.lastSeq {
		return
	}
	c.lastSeq = seq

	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
