package sink

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// SubmitMethod is the unary method invoked for each record. The request is
// a google.protobuf.Struct and the response a google.protobuf.Empty, so a
// collector needs no generated stubs from this module.
const SubmitMethod = "/geoship.v1.LocationIngest/Submit"

// GRPC submits records over a plaintext gRPC connection:
//
//	grpc://collector:9090
type GRPC struct {
	target   string
	deviceID string
	timeout  time.Duration

	mu   sync.Mutex
	conn *grpc.ClientConn
}

var _ ports.Sink = (*GRPC)(nil)

// NewGRPC validates the endpoint. The channel connects lazily.
func NewGRPC(cfg domain.TrackerConfig, opts Options) (*GRPC, error) {
	opts = opts.withDefaults()
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: grpc endpoint has no host", domain.ErrUnsupportedEndpoint)
	}
	target := u.Host
	if p := strings.Trim(u.Path, "/"); p != "" {
		target += "/" + p
	}
	return &GRPC{target: target, deviceID: cfg.DeviceID, timeout: opts.Timeout}, nil
}

func (s *GRPC) client() (*grpc.ClientConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := grpc.NewClient(s.target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", s.target, err)
	}
	s.conn = conn
	return conn, nil
}

func (s *GRPC) Submit(ctx context.Context, record map[string]string) error {
	conn, err := s.client()
	if err != nil {
		return err
	}
	req, err := structpb.NewStruct(recordPayload(s.deviceID, record))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := conn.Invoke(ctx, SubmitMethod, req, &emptypb.Empty{}); err != nil {
		return fmt.Errorf("grpc submit: %w", err)
	}
	return nil
}

func (s *GRPC) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
