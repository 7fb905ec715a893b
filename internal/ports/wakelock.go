package ports

// WakeLock keeps the host from sleeping. Acquire and Release are counted;
// Release with no outstanding hold is a no-op. An Acquire that returns an
// error took no hold and must not be released.
type WakeLock interface {
	Acquire() error
	Release() error

	// Held reports whether at least one hold is outstanding.
	Held() bool
}
