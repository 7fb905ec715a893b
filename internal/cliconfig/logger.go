package cliconfig

import (
	"io"

	"github.com/bft-labs/geoship/pkg/log"
)

// NewLogger builds the console logger for level ("debug", "info", ...).
func NewLogger(level string, w io.Writer) (log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewConsoleAdapter(w, lvl), nil
}
