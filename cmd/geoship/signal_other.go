//go:build !unix

package main

import "os"

var toggleSignals []os.Signal
