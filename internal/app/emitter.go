package app

import (
	"time"

	"github.com/bft-labs/geoship/internal/domain"
)

// EventEmitter receives tracker events. Methods are called from the
// tracker loop and must return quickly.
type EventEmitter interface {
	StateEmitter

	// OnStatus is called for every status line appended to the ring.
	OnStatus(entry domain.LogEntry)

	// OnReading is called when a reading is dispatched to the sink.
	OnReading(r domain.Reading)

	// OnSubmit is called when a submission resolves.
	OnSubmit(err error, duration time.Duration)

	// OnSubscribers is called when the number of subscribers changes.
	OnSubscribers(n int)
}

// NopEmitter ignores every event.
type NopEmitter struct{}

func (NopEmitter) OnStateChange(previous, current State, reason string) {}
func (NopEmitter) OnStatus(entry domain.LogEntry)                       {}
func (NopEmitter) OnReading(r domain.Reading)                           {}
func (NopEmitter) OnSubmit(err error, duration time.Duration)           {}
func (NopEmitter) OnSubscribers(n int)                                  {}

// Emitters fans every event out to each emitter in order.
type Emitters []EventEmitter

func (es Emitters) OnStateChange(previous, current State, reason string) {
	for _, e := range es {
		e.OnStateChange(previous, current, reason)
	}
}

func (es Emitters) OnStatus(entry domain.LogEntry) {
	for _, e := range es {
		e.OnStatus(entry)
	}
}

func (es Emitters) OnReading(r domain.Reading) {
	for _, e := range es {
		e.OnReading(r)
	}
}

func (es Emitters) OnSubmit(err error, duration time.Duration) {
	for _, e := range es {
		e.OnSubmit(err, duration)
	}
}

func (es Emitters) OnSubscribers(n int) {
	for _, e := range es {
		e.OnSubscribers(n)
	}
}
