package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

var errFixFileGone = errors.New("fix file removed")

// FixFile follows a JSON file that another process rewrites with the
// latest fix, in the format printed by termux-location:
//
//	{"latitude":45.1,"longitude":-122.5,"altitude":30,"accuracy":4.8,"speed":0,"provider":"gps"}
//
// An optional "time" field holds Unix milliseconds; without it the file's
// modification time is used.
type FixFile struct {
	path string
	s    settings

	mu      sync.Mutex
	events  ports.SourceEvents
	cancel  context.CancelFunc
	updates updater
	wg      sync.WaitGroup
}

var _ ports.LocationSource = (*FixFile)(nil)

// NewFixFile returns a source following path.
func NewFixFile(path string, opts ...Option) *FixFile {
	return &FixFile{path: path, s: apply(opts)}
}

func (f *FixFile) Connect(ctx context.Context, events ports.SourceEvents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return errAlreadyConnected
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.events = events

	f.wg.Add(1)
	go f.run(ctx, events)
	return nil
}

func (f *FixFile) StartUpdates(interval time.Duration) error {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()
	if events == nil {
		return fmt.Errorf("fix file: start updates before connect")
	}
	f.updates.start(spacing(interval, f.s.minSpacing), events)
	return nil
}

func (f *FixFile) Disconnect() error {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	f.updates.halt(true)
	f.wg.Wait()
	return nil
}

func (f *FixFile) run(ctx context.Context, events ports.SourceEvents) {
	defer f.wg.Done()
	b := newBackoff(f.s.backoffInitial, f.s.backoffMax)

	for {
		err := f.follow(ctx, events, b)
		if ctx.Err() != nil {
			return
		}
		f.s.logger.Warn("fix file unavailable", ports.String("path", f.path), ports.Err(err))
		if b.Wait(ctx) != nil {
			return
		}
	}
}

// follow reads the file once to connect, then applies every rewrite until
// the file goes away.
func (f *FixFile) follow(ctx context.Context, events ports.SourceEvents, b *backoff) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		events.OnConnectionFailed(err)
		return err
	}
	defer w.Close()

	// Watch the directory so atomic replace (write tmp, rename) is seen.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		events.OnConnectionFailed(err)
		return err
	}

	r, err := readFix(f.path)
	if err != nil {
		events.OnConnectionFailed(err)
		return err
	}
	f.updates.offer(r)
	b.Reset()
	events.OnConnected(f.updates.last())

	name := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				r, err := readFix(f.path)
				if err != nil {
					// partial writes are common; the next event carries the full file
					f.s.logger.Debug("skipping unreadable fix", ports.Err(err))
					continue
				}
				f.updates.offer(r)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.updates.halt(true)
				events.OnConnectionLost(errFixFileGone)
				return errFixFileGone
			}

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			f.s.logger.Warn("fix file watcher", ports.Err(err))
		}
	}
}

type fixDoc struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  float64  `json:"altitude"`
	Accuracy  float64  `json:"accuracy"`
	Speed     float64  `json:"speed"`
	Provider  string   `json:"provider"`
	Time      int64    `json:"time"`
}

func readFix(path string) (domain.Reading, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Reading{}, err
	}
	var doc fixDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return domain.Reading{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Latitude == nil || doc.Longitude == nil {
		return domain.Reading{}, fmt.Errorf("parse %s: missing coordinates", path)
	}

	r := domain.Reading{
		Latitude:  *doc.Latitude,
		Longitude: *doc.Longitude,
		AltitudeM: doc.Altitude,
		AccuracyM: doc.Accuracy,
		SpeedMps:  doc.Speed,
		Provider:  doc.Provider,
	}
	if r.Provider == "" {
		r.Provider = "file"
	}
	if doc.Time > 0 {
		r.Time = time.UnixMilli(doc.Time)
	} else if st, err := os.Stat(path); err == nil {
		r.Time = st.ModTime()
	} else {
		r.Time = time.Now()
	}
	return r, nil
}
