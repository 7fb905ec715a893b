package geoship

import (
	"time"

	"github.com/bft-labs/geoship/internal/app"
)

// EventHandler receives tracker events. Methods are called from the
// tracker's event loop and must return quickly. A handler may call
// Tracker.State and Tracker.IsRunning; the other Tracker methods wait on
// the event loop and deadlock when called from a handler.
type EventHandler interface {
	OnStateChange(previous, current State, reason string)
	OnStatus(entry LogEntry)
	OnReading(r Reading)
	OnSubmit(err error, duration time.Duration)
	OnSubscribers(n int)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// handle only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(previous, current State, reason string) {}
func (BaseEventHandler) OnStatus(entry LogEntry)                              {}
func (BaseEventHandler) OnReading(r Reading)                                  {}
func (BaseEventHandler) OnSubmit(err error, duration time.Duration)           {}
func (BaseEventHandler) OnSubscribers(n int)                                  {}

var _ app.EventEmitter = EventHandler(nil)

// statusLogger renders status lines as info logs, the CLI's stand-in for
// an ongoing notification.
type statusLogger struct {
	BaseEventHandler
	logger Logger
}

func (s statusLogger) OnStatus(entry LogEntry) {
	s.logger.Info(entry.Text)
}

// LogStatus returns a handler that writes every status line to logger.
func LogStatus(logger Logger) EventHandler {
	return statusLogger{logger: logger}
}

func emitters(handlers []EventHandler) app.EventEmitter {
	switch len(handlers) {
	case 0:
		return app.NopEmitter{}
	case 1:
		return handlers[0]
	}
	es := make(app.Emitters, len(handlers))
	for i, h := range handlers {
		es[i] = h
	}
	return es
}
