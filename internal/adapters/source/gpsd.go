package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// DefaultGPSDAddr is where gpsd listens by default.
const DefaultGPSDAddr = "127.0.0.1:2947"

const gpsdWatch = "?WATCH={\"enable\":true,\"json\":true};\n"

var errAlreadyConnected = errors.New("source already connected")

// GPSD reads fixes from a gpsd daemon over its JSON socket protocol.
type GPSD struct {
	addr string
	s    settings

	mu      sync.Mutex
	events  ports.SourceEvents
	cancel  context.CancelFunc
	updates updater
	wg      sync.WaitGroup
}

var _ ports.LocationSource = (*GPSD)(nil)

// NewGPSD returns a source for the gpsd instance at addr.
func NewGPSD(addr string, opts ...Option) *GPSD {
	if addr == "" {
		addr = DefaultGPSDAddr
	}
	return &GPSD{addr: addr, s: apply(opts)}
}

func (g *GPSD) Connect(ctx context.Context, events ports.SourceEvents) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return errAlreadyConnected
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.events = events

	g.wg.Add(1)
	go g.run(ctx, events)
	return nil
}

func (g *GPSD) StartUpdates(interval time.Duration) error {
	g.mu.Lock()
	events := g.events
	g.mu.Unlock()
	if events == nil {
		return fmt.Errorf("gpsd: start updates before connect")
	}
	g.updates.start(spacing(interval, g.s.minSpacing), events)
	return nil
}

func (g *GPSD) Disconnect() error {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.updates.halt(true)
	g.wg.Wait()
	return nil
}

func (g *GPSD) run(ctx context.Context, events ports.SourceEvents) {
	defer g.wg.Done()
	b := newBackoff(g.s.backoffInitial, g.s.backoffMax)

	for {
		err := g.session(ctx, events, b)
		if ctx.Err() != nil {
			return
		}
		g.s.logger.Warn("gpsd session ended", ports.String("addr", g.addr), ports.Err(err))
		if b.Wait(ctx) != nil {
			return
		}
	}
}

// session dials gpsd, enables watch mode and feeds TPV reports into the
// updater until the connection fails.
func (g *GPSD) session(ctx context.Context, events ports.SourceEvents, b *backoff) error {
	conn, err := g.s.dial(ctx, "tcp", g.addr)
	if err != nil {
		events.OnConnectionFailed(fmt.Errorf("dial gpsd: %w", err))
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	if _, err := conn.Write([]byte(gpsdWatch)); err != nil {
		events.OnConnectionFailed(fmt.Errorf("enable watch: %w", err))
		return err
	}

	b.Reset()
	events.OnConnected(g.updates.last())

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		r, ok := parseTPV(sc.Bytes(), time.Now())
		if !ok {
			continue
		}
		g.updates.offer(r)
	}
	err = sc.Err()
	if err == nil {
		err = errors.New("gpsd closed the connection")
	}

	g.updates.halt(true)
	if ctx.Err() == nil {
		events.OnConnectionLost(err)
	}
	return err
}

// tpv is the subset of a gpsd TPV report geoship uses.
type tpv struct {
	Class  string   `json:"class"`
	Mode   int      `json:"mode"`
	Time   string   `json:"time"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	AltHAE *float64 `json:"altHAE"`
	Alt    *float64 `json:"alt"`
	Speed  *float64 `json:"speed"`
	Eph    *float64 `json:"eph"`
	Epx    *float64 `json:"epx"`
	Epy    *float64 `json:"epy"`
}

// parseTPV returns the fix in a TPV line with at least a 2D fix.
func parseTPV(line []byte, now time.Time) (domain.Reading, bool) {
	var m tpv
	if err := json.Unmarshal(line, &m); err != nil {
		return domain.Reading{}, false
	}
	if m.Class != "TPV" || m.Mode < 2 || m.Lat == nil || m.Lon == nil {
		return domain.Reading{}, false
	}

	r := domain.Reading{
		Time:      now,
		Latitude:  *m.Lat,
		Longitude: *m.Lon,
		Provider:  "gps",
	}
	if ts, err := time.Parse(time.RFC3339Nano, m.Time); err == nil {
		r.Time = ts
	}
	switch {
	case m.AltHAE != nil:
		r.AltitudeM = *m.AltHAE
	case m.Alt != nil:
		r.AltitudeM = *m.Alt
	}
	if m.Speed != nil {
		r.SpeedMps = *m.Speed
	}
	switch {
	case m.Eph != nil:
		r.AccuracyM = *m.Eph
	case m.Epx != nil && m.Epy != nil:
		r.AccuracyM = math.Max(*m.Epx, *m.Epy)
	}
	return r, true
}
