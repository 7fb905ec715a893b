package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
	"github.com/bft-labs/geoship/pkg/log"
)

// Status lines written to the log ring.
const (
	StatusNoLocation = "No location found"
	StatusUnchanged  = "Location has not changed"
	StatusSendFailed = "Failed to send location data."
)

const eventQueueSize = 64

// SinkFactory opens the sink for a validated configuration.
type SinkFactory func(cfg domain.TrackerConfig) (ports.Sink, error)

// Deps are the collaborators of a Tracker. Source and OpenSink are
// required; the rest default to no-ops.
type Deps struct {
	Source   ports.LocationSource
	OpenSink SinkFactory
	WakeLock ports.WakeLock
	Logger   ports.Logger
	Emitter  EventEmitter
}

// Tracker drives a location source, forwards readings to a sink and
// publishes status lines to subscribers.
//
// All state changes, ring appends and subscriber deliveries happen on a
// single loop goroutine. Source callbacks, submission results and public
// calls are posted to it. A Tracker runs once: after Stop or a failed
// Start, create a new one.
type Tracker struct {
	source   ports.LocationSource
	openSink SinkFactory
	wakeLock ports.WakeLock
	logger   ports.Logger
	emitter  EventEmitter

	lifecycle *Lifecycle
	ring      *LogRing
	registry  *Registry

	events chan func()
	quit   chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	started   bool
	connected bool
	cfg       domain.TrackerConfig
	runCtx    context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once

	launched atomic.Bool
	stopping atomic.Bool
	inflight sync.WaitGroup

	// loop-owned
	sink  ports.Sink
	holds int
	exit  bool
}

// NewTracker returns a tracker in StateStarting.
func NewTracker(deps Deps) *Tracker {
	t := &Tracker{
		source:   deps.Source,
		openSink: deps.OpenSink,
		wakeLock: deps.WakeLock,
		logger:   deps.Logger,
		emitter:  deps.Emitter,
		events:   make(chan func(), eventQueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if t.logger == nil {
		t.logger = log.NewNoopLogger()
	}
	if t.emitter == nil {
		t.emitter = NopEmitter{}
	}
	if t.wakeLock == nil {
		t.wakeLock = &nopWakeLock{}
	}
	t.lifecycle = NewLifecycle(t.logger, t.emitter)
	t.ring = NewLogRing(LogRingCapacity)
	t.registry = NewRegistry(t.ring, t.logger)
	return t
}

// Start validates cfg, opens the sink and begins connecting the source.
// An invalid configuration moves the tracker to StateFailed and is
// returned as a *domain.ConfigError. Start returns without waiting for
// the source to connect.
func (t *Tracker) Start(ctx context.Context, cfg domain.TrackerConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return domain.ErrAlreadyRunning
	}
	t.started = true
	t.cfg = cfg
	t.runCtx, t.cancel = context.WithCancel(ctx)

	t.launched.Store(true)
	go t.run()

	var err error
	if callErr := t.call(func() { err = t.begin() }); callErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return callErr
	}
	if err != nil {
		t.cancel()
		<-t.done
		return err
	}

	if err := t.source.Connect(t.runCtx, sourceEvents{t}); err != nil {
		t.stopLocked()
		return fmt.Errorf("connect source: %w", err)
	}
	t.connected = true
	return nil
}

// Stop shuts the tracker down: pending wake lock holds are released,
// subscribers are told, the source is disconnected and the sink closed.
// No status line is produced once Stop begins. Stop is idempotent.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	t.stopOnce.Do(func() {
		t.stopping.Store(true)
		close(t.quit)
		<-t.done

		t.cancel()
		if t.connected {
			if err := t.source.Disconnect(); err != nil {
				t.logger.Warn("disconnect location source", ports.Err(err))
			}
		}
		t.inflight.Wait()
		if t.sink != nil {
			if err := t.sink.Close(); err != nil {
				t.logger.Warn("close sink", ports.Err(err))
			}
		}
	})
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	return t.lifecycle.State()
}

// IsRunning reports whether the tracker started and has not reached a
// terminal state.
func (t *Tracker) IsRunning() bool {
	return t.launched.Load() && !t.State().Terminal()
}

// Subscribe registers s and delivers the current log ring to it. Returns
// domain.ErrSubscriberGone if s rejected the snapshot.
func (t *Tracker) Subscribe(s ports.Subscriber) error {
	var ok bool
	err := t.do(func() {
		ok = t.registry.Register(s)
		t.emitter.OnSubscribers(t.registry.Len())
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSubscriberGone
	}
	return nil
}

// Unsubscribe removes s. After it returns s receives no further lines.
func (t *Tracker) Unsubscribe(s ports.Subscriber) error {
	return t.do(func() {
		if t.registry.Unregister(s) {
			t.emitter.OnSubscribers(t.registry.Len())
		}
	})
}

// Snapshot returns the log ring, oldest first. It keeps working after
// the tracker stops.
func (t *Tracker) Snapshot() ([]domain.LogEntry, error) {
	if !t.launched.Load() {
		return nil, domain.ErrNotRunning
	}
	var out []domain.LogEntry
	if err := t.call(func() { out = t.ring.Snapshot() }); err != nil {
		// loop has exited; the ring no longer changes
		return t.ring.Snapshot(), nil
	}
	return out, nil
}

// Suspend pauses an active tracker. Updates arriving while suspended
// are dropped.
func (t *Tracker) Suspend(reason string) error {
	var err error
	if callErr := t.do(func() { err = t.lifecycle.TransitionTo(StateSuspended, reason) }); callErr != nil {
		return callErr
	}
	return err
}

// Resume returns a suspended tracker to StateActive.
func (t *Tracker) Resume(reason string) error {
	var err error
	if callErr := t.do(func() {
		if t.lifecycle.State() != StateSuspended {
			err = fmt.Errorf("%w: not suspended", domain.ErrInvalidTransition)
			return
		}
		err = t.lifecycle.TransitionTo(StateActive, reason)
	}); callErr != nil {
		return callErr
	}
	return err
}

func (t *Tracker) run() {
	defer close(t.done)
	for {
		select {
		case fn := <-t.events:
			fn()
			if t.exit {
				return
			}
		case <-t.quit:
			t.shutdown("stop requested")
			return
		case <-t.runCtx.Done():
			t.shutdown("context canceled")
			go t.Stop()
			return
		}
	}
}

// post queues fn for the loop. It reports false once the loop is gone.
func (t *Tracker) post(fn func()) bool {
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.events <- fn:
		return true
	case <-t.done:
		return false
	}
}

// call runs fn on the loop and waits for it.
func (t *Tracker) call(fn func()) error {
	ran := make(chan struct{})
	if !t.post(func() { fn(); close(ran) }) {
		return domain.ErrNotRunning
	}
	select {
	case <-ran:
		return nil
	case <-t.done:
		select {
		case <-ran:
			return nil
		default:
			return domain.ErrNotRunning
		}
	}
}

func (t *Tracker) do(fn func()) error {
	if !t.launched.Load() || t.stopping.Load() {
		return domain.ErrNotRunning
	}
	return t.call(fn)
}

// begin runs on the loop before the source is connected.
func (t *Tracker) begin() error {
	if err := t.cfg.Validate(); err != nil {
		return t.fail(err)
	}
	sink, err := t.openSink(t.cfg)
	if err != nil {
		return t.fail(&domain.ConfigError{Reason: err.Error(), Err: err})
	}
	t.sink = sink

	if err := t.lifecycle.TransitionTo(StateConnecting, "configuration accepted"); err != nil {
		return err
	}
	t.status("tracker started, requesting location update every " + FormatInterval(t.cfg.Interval()))
	t.logger.Info("tracker started",
		ports.String("device_id", t.cfg.DeviceID),
		ports.Duration("interval", t.cfg.Interval()),
	)
	return nil
}

func (t *Tracker) fail(err error) error {
	reason := err.Error()
	var cerr *domain.ConfigError
	if errors.As(err, &cerr) {
		reason = cerr.Reason
	}
	t.status(reason + ", stopping tracker")
	t.logger.Error("tracker failed", ports.Err(err))
	_ = t.lifecycle.TransitionTo(StateFailed, reason)
	t.exit = true
	return err
}

func (t *Tracker) shutdown(reason string) {
	t.stopping.Store(true)
	for t.holds > 0 {
		t.release(true)
	}
	t.registry.NotifyShutdown()
	if err := t.lifecycle.TransitionTo(StateStopped, reason); err != nil {
		t.logger.Debug("shutdown transition", ports.Err(err))
	}
}

func (t *Tracker) handleConnected(last *domain.Reading) {
	if t.stopping.Load() {
		return
	}
	if err := t.lifecycle.TransitionTo(StateActive, "source connected"); err != nil {
		t.logger.Debug("ignoring connect", ports.Err(err))
		return
	}
	if last != nil {
		t.handleReading(last)
	} else {
		t.status(StatusNoLocation)
	}
	if err := t.source.StartUpdates(t.cfg.Interval()); err != nil {
		t.logger.Warn("start location updates", ports.Err(err))
	}
}

func (t *Tracker) handleDisconnected(reason string, err error) {
	if t.stopping.Load() {
		return
	}
	t.logger.Warn("location source "+reason, ports.Err(err))
	switch t.lifecycle.State() {
	case StateActive, StateSuspended:
		_ = t.lifecycle.TransitionTo(StateConnecting, reason)
	case StateConnecting:
	default:
		return
	}
	t.status(StatusNoLocation)
}

func (t *Tracker) handleUpdate(r *domain.Reading) {
	if t.stopping.Load() {
		return
	}
	if s := t.lifecycle.State(); s != StateActive {
		t.logger.Debug("dropping update", ports.String("state", s.String()))
		return
	}
	t.handleReading(r)
}

// handleReading takes a wake lock hold, then either logs that nothing
// changed or hands the record to the sink without waiting for it.
func (t *Tracker) handleReading(r *domain.Reading) {
	held := t.acquire()
	if r == nil {
		t.status(StatusUnchanged)
		t.release(held)
		return
	}

	reading := *r
	record := reading.Record()
	t.emitter.OnReading(reading)

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		start := time.Now()
		err := t.sink.Submit(t.runCtx, record)
		took := time.Since(start)
		t.post(func() { t.handleSubmitted(reading, err, took, held) })
	}()
}

func (t *Tracker) handleSubmitted(r domain.Reading, err error, took time.Duration, held bool) {
	if t.stopping.Load() {
		// shutdown releases every outstanding hold
		return
	}
	defer t.release(held)

	t.emitter.OnSubmit(err, took)
	if err != nil {
		t.logger.Warn("submit location", ports.Err(err), ports.Duration("took", took))
		t.status(StatusSendFailed)
		return
	}
	t.status(r.Summary())
}

func (t *Tracker) acquire() bool {
	if err := t.wakeLock.Acquire(); err != nil {
		t.logger.Warn("acquire wake lock", ports.Err(err))
		return false
	}
	t.holds++
	return true
}

func (t *Tracker) release(held bool) {
	if !held || t.holds == 0 {
		return
	}
	t.holds--
	if err := t.wakeLock.Release(); err != nil {
		t.logger.Warn("release wake lock", ports.Err(err))
	}
}

// status appends text to the ring and fans it out.
func (t *Tracker) status(text string) {
	entry := t.ring.Append(text)
	t.emitter.OnStatus(entry)
	if dropped := t.registry.Broadcast(text); dropped > 0 {
		t.emitter.OnSubscribers(t.registry.Len())
	}
}

// FormatInterval renders whole hours, minutes or seconds the way they
// are configured: "1h", "5m", "90s".
func FormatInterval(d time.Duration) string {
	s := int64(d / time.Second)
	switch {
	case s > 0 && s%3600 == 0:
		return fmt.Sprintf("%dh", s/3600)
	case s > 0 && s%60 == 0:
		return fmt.Sprintf("%dm", s/60)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// sourceEvents posts source callbacks onto the tracker loop.
type sourceEvents struct {
	t *Tracker
}

func (e sourceEvents) OnConnected(last *domain.Reading) {
	last = cloneReading(last)
	e.deliver(func() { e.t.handleConnected(last) })
}

func (e sourceEvents) OnConnectionFailed(err error) {
	e.deliver(func() { e.t.handleDisconnected("connection failed", err) })
}

func (e sourceEvents) OnConnectionLost(err error) {
	e.deliver(func() { e.t.handleDisconnected("connection lost", err) })
}

func (e sourceEvents) OnUpdate(r *domain.Reading) {
	r = cloneReading(r)
	e.deliver(func() { e.t.handleUpdate(r) })
}

func (e sourceEvents) deliver(fn func()) {
	if e.t.stopping.Load() {
		return
	}
	e.t.post(fn)
}

func cloneReading(r *domain.Reading) *domain.Reading {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

type nopWakeLock struct {
	n atomic.Int64
}

func (w *nopWakeLock) Acquire() error { w.n.Add(1); return nil }

func (w *nopWakeLock) Release() error {
	if w.n.Load() > 0 {
		w.n.Add(-1)
	}
	return nil
}

func (w *nopWakeLock) Held() bool { return w.n.Load() > 0 }
