package geoship

import "github.com/bft-labs/geoship/pkg/log"

type captureLogger struct {
	log.NoopLogger
	lines *[]string
}

func (c *captureLogger) Info(msg string, fields ...log.Field) { *c.lines = append(*c.lines, msg) }

func (c *captureLogger) With(fields ...log.Field) log.Logger { return c }
