// Package log is the logging abstraction shared by geoship components.
//
// Library code depends only on the [Logger] interface. The CLI wires a
// zerolog-backed [ZerologAdapter]; embedders can pass their own
// implementation, and tests use [NoopLogger]:
//
//	logger := log.NewConsoleAdapter(os.Stderr, zerolog.DebugLevel)
//	logger.Info("tracker started", log.Duration("interval", time.Minute))
package log
