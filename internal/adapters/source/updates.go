package source

import (
	"sync"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// MinUpdateSpacing is the shortest time allowed between two updates.
const MinUpdateSpacing = 5 * time.Second

// updater keeps the latest fix and emits it on a fixed cadence. An update
// carries the fix only if it arrived after the previous update; otherwise
// it carries nil.
type updater struct {
	mu     sync.Mutex
	latest *domain.Reading
	fresh  bool

	cur     *cadence
	retired []*cadence // stopped, possibly still exiting
}

// cadence is one ticker goroutine. done is closed when it has exited.
type cadence struct {
	stop chan struct{}
	done chan struct{}
}

func (c *cadence) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// offer records r as the latest fix.
func (u *updater) offer(r domain.Reading) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.latest = &r
	u.fresh = true
}

// last returns a copy of the latest fix, or nil.
func (u *updater) last() *domain.Reading {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.latest == nil {
		return nil
	}
	c := *u.latest
	return &c
}

func (u *updater) take() *domain.Reading {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.fresh {
		return nil
	}
	u.fresh = false
	c := *u.latest
	return &c
}

// start replaces any running cadence with one that calls
// events.OnUpdate every interval. It does not wait for the previous
// cadence to exit, since it is called from the tracker loop that cadence
// may be posting to.
func (u *updater) start(interval time.Duration, events ports.SourceEvents) {
	u.halt(false)

	c := &cadence{stop: make(chan struct{}), done: make(chan struct{})}
	u.mu.Lock()
	u.cur = c
	// only fixes newer than the start count
	u.fresh = false
	live := u.retired[:0]
	for _, r := range u.retired {
		if !r.exited() {
			live = append(live, r)
		}
	}
	u.retired = live
	u.mu.Unlock()

	go func() {
		defer close(c.done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				select {
				case <-c.stop:
					return
				default:
				}
				events.OnUpdate(u.take())
			}
		}
	}()
}

// halt stops the cadence. With wait it also blocks until every stopped
// cadence has exited.
func (u *updater) halt(wait bool) {
	u.mu.Lock()
	if c := u.cur; c != nil {
		u.cur = nil
		close(c.stop)
		u.retired = append(u.retired, c)
	}
	var pending []*cadence
	if wait {
		pending = u.retired
		u.retired = nil
	}
	u.mu.Unlock()

	for _, c := range pending {
		<-c.done
	}
}

func spacing(interval, min time.Duration) time.Duration {
	if interval < min {
		return min
	}
	return interval
}
