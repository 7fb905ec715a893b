package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// HTTP posts each record as a JSON object to <endpoint>/<device id>.
type HTTP struct {
	url      string
	deviceID string
	client   ports.HTTPClient
	authKey  string
	hostname string
}

var _ ports.Sink = (*HTTP)(nil)

// NewHTTP creates an HTTP sink.
func NewHTTP(cfg domain.TrackerConfig, opts Options) *HTTP {
	opts = opts.withDefaults()
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTP{
		url:      cfg.DeviceEndpoint(),
		deviceID: cfg.DeviceID,
		client:   client,
		authKey:  opts.AuthKey,
		hostname: opts.Hostname,
	}
}

// Submit transmits one record.
func (s *HTTP) Submit(ctx context.Context, record map[string]string) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.authKey)
	}
	req.Header.Set("X-Agent-Hostname", s.hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	req.Header.Set("X-Geoship-Device-Id", s.deviceID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *HTTP) Close() error { return nil }
