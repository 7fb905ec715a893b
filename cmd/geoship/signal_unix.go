//go:build unix

package main

import (
	"os"
	"syscall"
)

// SIGUSR1 toggles between active and suspended.
var toggleSignals = []os.Signal{syscall.SIGUSR1}
