package app

import (
	"github.com/bft-labs/geoship/internal/ports"
)

// Registry is the set of subscribers that receive status lines. Like
// LogRing it is owned by the tracker loop.
type Registry struct {
	ring   *LogRing
	subs   []ports.Subscriber
	logger ports.Logger
}

// NewRegistry returns an empty registry that serves snapshots from ring.
func NewRegistry(ring *LogRing, logger ports.Logger) *Registry {
	return &Registry{ring: ring, logger: logger}
}

// Register adds s and delivers the current ring as one snapshot. Adding a
// subscriber twice has no effect. A subscriber whose snapshot delivery
// fails is not kept. Returns whether s is registered afterwards.
func (r *Registry) Register(s ports.Subscriber) bool {
	if r.index(s) >= 0 {
		return true
	}
	if err := s.DeliverSnapshot(r.ring.Snapshot()); err != nil {
		r.logger.Debug("subscriber rejected snapshot", ports.Err(err))
		return false
	}
	r.subs = append(r.subs, s)
	return true
}

// Unregister removes s. Returns false if s was not registered.
func (r *Registry) Unregister(s ports.Subscriber) bool {
	i := r.index(s)
	if i < 0 {
		return false
	}
	copy(r.subs[i:], r.subs[i+1:])
	r.subs[len(r.subs)-1] = nil
	r.subs = r.subs[:len(r.subs)-1]
	return true
}

// Broadcast delivers text to every subscriber in registration order and
// drops the ones that fail. Returns the number dropped.
func (r *Registry) Broadcast(text string) int {
	kept := r.subs[:0]
	for _, s := range r.subs {
		if err := s.Deliver(text); err != nil {
			r.logger.Debug("dropping subscriber", ports.Err(err))
			continue
		}
		kept = append(kept, s)
	}
	dropped := len(r.subs) - len(kept)
	for i := len(kept); i < len(r.subs); i++ {
		r.subs[i] = nil
	}
	r.subs = kept
	return dropped
}

// NotifyShutdown tells every subscriber that implements
// ports.ShutdownNotifier that the tracker is stopping.
func (r *Registry) NotifyShutdown() {
	for _, s := range r.subs {
		if n, ok := s.(ports.ShutdownNotifier); ok {
			n.NotifyShutdown()
		}
	}
}

func (r *Registry) Len() int { return len(r.subs) }

func (r *Registry) index(s ports.Subscriber) int {
	for i, x := range r.subs {
		if x == s {
			return i
		}
	}
	return -1
}
