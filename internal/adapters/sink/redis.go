package sink

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// DefaultStreamMaxLen caps a Redis stream (approximately).
const DefaultStreamMaxLen = 10000

// Redis appends each record to a stream:
//
//	redis://[user:pass@]host:6379/0?stream=geoship:locations&maxlen=10000
//
// The stream defaults to geoship:locations:<device id>.
type Redis struct {
	client   *redis.Client
	stream   string
	maxLen   int64
	deviceID string
	timeout  time.Duration
}

var _ ports.Sink = (*Redis)(nil)

// NewRedis parses the endpoint and creates a client. No connection is made
// until the first Submit.
func NewRedis(cfg domain.TrackerConfig, opts Options) (*Redis, error) {
	stream, maxLen, redisURL, err := parseRedisEndpoint(cfg.Endpoint, cfg.DeviceID)
	if err != nil {
		return nil, err
	}
	ro, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts = opts.withDefaults()
	ro.DialTimeout = opts.Timeout

	return &Redis{
		client:   redis.NewClient(ro),
		stream:   stream,
		maxLen:   maxLen,
		deviceID: cfg.DeviceID,
		timeout:  opts.Timeout,
	}, nil
}

// parseRedisEndpoint strips the geoship-only query parameters, which
// redis.ParseURL would reject.
func parseRedisEndpoint(endpoint, deviceID string) (stream string, maxLen int64, redisURL string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", 0, "", err
	}
	stream = popQuery(u, "stream")
	if stream == "" {
		stream = "geoship:locations"
		if deviceID != "" {
			stream += ":" + deviceID
		}
	}
	maxLen = DefaultStreamMaxLen
	if v := popQuery(u, "maxlen"); v != "" {
		maxLen, err = strconv.ParseInt(v, 10, 64)
		if err != nil || maxLen < 0 {
			return "", 0, "", fmt.Errorf("invalid maxlen %q", v)
		}
	}
	return stream, maxLen, u.String(), nil
}

func (s *Redis) Submit(ctx context.Context, record map[string]string) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: recordPayload(s.deviceID, record),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis XADD %s: %w", s.stream, err)
	}
	return nil
}

func (s *Redis) Close() error { return s.client.Close() }
