package sink

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
	"github.com/bft-labs/geoship/pkg/log"
)

// DefaultTimeout bounds a single Submit. An earlier deadline on the
// caller's context still wins.
const DefaultTimeout = 15 * time.Second

// Options are shared by every sink.
type Options struct {
	// HTTPClient is used by the HTTP sink. Defaults to a client with Timeout.
	HTTPClient ports.HTTPClient

	// AuthKey is sent as a bearer token by the HTTP sink.
	AuthKey string

	// Hostname identifies the agent host in request metadata.
	Hostname string

	Timeout time.Duration
	Logger  ports.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewNoopLogger()
	}
	return o
}

// Open returns the sink for cfg.Endpoint's scheme:
//
//	http, https                      JSON POST to <endpoint>/<device id>
//	redis, rediss                    XADD to a stream
//	mqtt, mqtts, tcp, ssl, ws, wss   MQTT publish
//	amqp, amqps                      AMQP publish
//	grpc                             unary gRPC call
//	postgres, postgresql             INSERT into a table
func Open(cfg domain.TrackerConfig, opts Options) (ports.Sink, error) {
	opts = opts.withDefaults()

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedEndpoint, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTP(cfg, opts), nil
	case "redis", "rediss":
		return NewRedis(cfg, opts)
	case "mqtt", "mqtts", "tcp", "ssl", "ws", "wss":
		return NewMQTT(cfg, opts)
	case "amqp", "amqps":
		return NewAMQP(cfg, opts)
	case "grpc":
		return NewGRPC(cfg, opts)
	case "postgres", "postgresql":
		return NewPostgres(cfg, opts)
	default:
		return nil, fmt.Errorf("%w: scheme %q", domain.ErrUnsupportedEndpoint, u.Scheme)
	}
}

// Factory binds opts into a function that opens sinks per configuration.
func Factory(opts Options) func(domain.TrackerConfig) (ports.Sink, error) {
	return func(cfg domain.TrackerConfig) (ports.Sink, error) {
		return Open(cfg, opts)
	}
}

// popQuery removes key from the URL query and returns its value.
func popQuery(u *url.URL, key string) string {
	q := u.Query()
	v := q.Get(key)
	q.Del(key)
	u.RawQuery = q.Encode()
	return v
}

func recordPayload(deviceID string, record map[string]string) map[string]any {
	out := make(map[string]any, len(record)+1)
	for k, v := range record {
		out[k] = v
	}
	if deviceID != "" {
		out["device_id"] = deviceID
	}
	return out
}
