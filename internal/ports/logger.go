package ports

import "github.com/bft-labs/geoship/pkg/log"

// Logger and Field alias the public logging package so adapters and the
// core share one logger type.
type (
	Logger = log.Logger
	Field  = log.Field
)

var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
	Any      = log.Any
)
