// Package ports defines the interfaces between the tracker core
// (internal/app) and the infrastructure adapters (internal/adapters).
//
//   - [LocationSource]: connects to a positioning provider and reports fixes
//   - [SourceEvents]: the callbacks a source reports into
//   - [Sink]: accepts location records for remote storage
//   - [Subscriber]: an observer that receives log lines
//   - [WakeLock]: keeps the host awake while a submission is in flight
//   - [Logger]: structured logging
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The core depends only on these interfaces, so every adapter can be
// replaced by a hand-written fake in tests.
package ports
