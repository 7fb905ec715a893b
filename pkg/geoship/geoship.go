package geoship

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/geoship/internal/adapters/sink"
	"github.com/bft-labs/geoship/internal/adapters/source"
	"github.com/bft-labs/geoship/internal/app"
	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// Tracker is an embeddable location tracking agent. Use New() to create
// one, then Start() to begin a tracking session. A Tracker can be started
// again after Stop, and Restart swaps the configuration while keeping
// subscribers attached.
type Tracker struct {
	opts options

	// mu serializes Start, Restart and Stop. Readers load cur without it,
	// so event handlers running inside Start can still query the Tracker.
	mu  sync.Mutex
	cur atomic.Pointer[app.Tracker]

	subsMu     sync.Mutex
	subs       map[Subscriber]*handle
	restarting atomic.Bool
}

// New creates a Tracker. No session runs until Start.
func New(opts ...Option) *Tracker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.newSource == nil {
		logger := o.logger
		o.newSource = func() LocationSource {
			return source.NewGPSD(source.DefaultGPSDAddr, source.WithLogger(logger))
		}
	}
	return &Tracker{opts: o, subs: make(map[Subscriber]*handle)}
}

// Start begins a session with cfg. It returns once the sink is open and
// the source is connecting; readings arrive in the background. An invalid
// cfg returns an error matching ErrInvalidConfig and leaves the Tracker
// in StateFailed with the reason on its log ring.
func (t *Tracker) Start(ctx context.Context, cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur := t.cur.Load(); cur != nil && cur.IsRunning() {
		return ErrAlreadyRunning
	}
	return t.startLocked(ctx, cfg)
}

// Restart stops the running session, if any, and starts a new one with
// cfg. Subscribers stay attached and receive the new session's log ring.
func (t *Tracker) Restart(ctx context.Context, cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur := t.cur.Load(); cur != nil {
		t.restarting.Store(true)
		cur.Stop()
		t.restarting.Store(false)
	}
	return t.startLocked(ctx, cfg)
}

func (t *Tracker) startLocked(ctx context.Context, cfg Config) error {
	cur := app.NewTracker(app.Deps{
		Source:   t.opts.newSource(),
		OpenSink: t.sinkFactory(cfg),
		WakeLock: t.opts.wakeLock,
		Logger:   t.opts.logger,
		Emitter:  emitters(t.opts.handlers),
	})
	t.cur.Store(cur)

	if err := cur.Start(ctx, cfg.tracker()); err != nil {
		t.dropAll()
		return err
	}

	for _, h := range t.handles() {
		if err := cur.Subscribe(h); err != nil {
			t.forget(h.s)
		}
	}
	return nil
}

func (t *Tracker) sinkFactory(cfg Config) app.SinkFactory {
	if f := t.opts.sinkFactory; f != nil {
		return func(domain.TrackerConfig) (ports.Sink, error) { return f(cfg) }
	}
	return sink.Factory(sink.Options{
		HTTPClient: t.opts.httpClient,
		AuthKey:    cfg.AuthKey,
		Hostname:   t.opts.hostname,
		Timeout:    cfg.HTTPTimeout,
		Logger:     t.opts.logger,
	})
}

// Stop ends the session. Subscribers implementing ShutdownNotifier are
// told and then detached. Returns ErrNotRunning if no session was ever
// started.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.cur.Load()
	if cur == nil {
		return ErrNotRunning
	}
	cur.Stop()
	return nil
}

// State returns the current session's state, or StateStopped before the
// first Start.
func (t *Tracker) State() State {
	if cur := t.current(); cur != nil {
		return cur.State()
	}
	return StateStopped
}

// IsRunning reports whether a session is live.
func (t *Tracker) IsRunning() bool {
	cur := t.current()
	return cur != nil && cur.IsRunning()
}

// Subscribe attaches s. It first receives the whole log ring, then every
// new status line.
func (t *Tracker) Subscribe(s Subscriber) error {
	cur := t.current()
	if cur == nil {
		return ErrNotRunning
	}

	t.subsMu.Lock()
	h, ok := t.subs[s]
	if !ok {
		h = &handle{t: t, s: s}
		t.subs[s] = h
	}
	t.subsMu.Unlock()

	if err := cur.Subscribe(h); err != nil {
		t.forget(s)
		return err
	}
	return nil
}

// Unsubscribe detaches s.
func (t *Tracker) Unsubscribe(s Subscriber) error {
	h := t.forget(s)
	cur := t.current()
	if h == nil || cur == nil {
		return nil
	}
	return cur.Unsubscribe(h)
}

// Snapshot returns the current log ring, oldest first. After Stop it
// still returns the last session's lines.
func (t *Tracker) Snapshot() ([]LogEntry, error) {
	cur := t.current()
	if cur == nil {
		return nil, ErrNotRunning
	}
	return cur.Snapshot()
}

// Suspend pauses an active session; updates are dropped until Resume.
func (t *Tracker) Suspend(reason string) error {
	cur := t.current()
	if cur == nil {
		return ErrNotRunning
	}
	return cur.Suspend(reason)
}

// Resume reactivates a suspended session.
func (t *Tracker) Resume(reason string) error {
	cur := t.current()
	if cur == nil {
		return ErrNotRunning
	}
	return cur.Resume(reason)
}

func (t *Tracker) current() *app.Tracker {
	return t.cur.Load()
}

func (t *Tracker) handles() []*handle {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	out := make([]*handle, 0, len(t.subs))
	for _, h := range t.subs {
		out = append(out, h)
	}
	return out
}

func (t *Tracker) forget(s Subscriber) *handle {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	h := t.subs[s]
	delete(t.subs, s)
	return h
}

func (t *Tracker) dropAll() {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for s, h := range t.subs {
		h.notify()
		delete(t.subs, s)
	}
}

// handle wraps a user Subscriber for one or more sessions. Shutdown
// notices are held back while a Restart swaps sessions.
type handle struct {
	t *Tracker
	s Subscriber
}

func (h *handle) DeliverSnapshot(entries []LogEntry) error {
	return h.s.DeliverSnapshot(entries)
}

func (h *handle) Deliver(text string) error {
	if err := h.s.Deliver(text); err != nil {
		h.t.forget(h.s)
		return err
	}
	return nil
}

func (h *handle) NotifyShutdown() {
	if h.t.restarting.Load() {
		return
	}
	h.t.forget(h.s)
	h.notify()
}

func (h *handle) notify() {
	if n, ok := h.s.(ShutdownNotifier); ok {
		n.NotifyShutdown()
	}
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
