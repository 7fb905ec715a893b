package source

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestParseTPV(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		line    string
		wantOK  bool
		wantLat float64
		wantAlt float64
		wantAcc float64
		wantT   time.Time
	}{
		{
			name:    "3d fix",
			line:    `{"class":"TPV","mode":3,"time":"2024-05-01T10:00:00.000Z","lat":45.5,"lon":-122.6,"altHAE":12.5,"speed":1.2,"eph":3.4}`,
			wantOK:  true,
			wantLat: 45.5,
			wantAlt: 12.5,
			wantAcc: 3.4,
			wantT:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "2d fix with epx/epy and no time",
			line:    `{"class":"TPV","mode":2,"lat":1,"lon":2,"alt":7,"epx":4,"epy":6}`,
			wantOK:  true,
			wantLat: 1,
			wantAlt: 7,
			wantAcc: 6,
			wantT:   now,
		},
		{name: "no fix", line: `{"class":"TPV","mode":1}`},
		{name: "sky report", line: `{"class":"SKY","satellites":[]}`},
		{name: "version banner", line: `{"class":"VERSION","release":"3.25"}`},
		{name: "garbage", line: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := parseTPV([]byte(tt.line), now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if r.Latitude != tt.wantLat || r.AltitudeM != tt.wantAlt || r.AccuracyM != tt.wantAcc {
				t.Errorf("reading = %+v", r)
			}
			if !r.Time.Equal(tt.wantT) {
				t.Errorf("time = %v, want %v", r.Time, tt.wantT)
			}
			if r.Provider != "gps" {
				t.Errorf("provider = %q", r.Provider)
			}
		})
	}
}

// fakeGPSD accepts connections and hands each one to the test.
func fakeGPSD(t *testing.T) (addr string, conns <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	ch := make(chan net.Conn, 4)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			ch <- c
		}
	}()
	return ln.Addr().String(), ch
}

func expectWatch(t *testing.T, c net.Conn) {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		t.Fatalf("read watch: %v", err)
	}
	if !strings.HasPrefix(line, "?WATCH=") {
		t.Fatalf("first command = %q", line)
	}
}

func TestGPSD_ConnectUpdateReconnect(t *testing.T) {
	addr, conns := fakeGPSD(t)
	g := NewGPSD(addr, fastOpts...)
	rec := newRecorder()

	if err := g.Connect(context.Background(), rec); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer g.Disconnect()

	c := recv(t, conns, "first connection")
	expectWatch(t, c)
	if last := recv(t, rec.connected, "connected"); last != nil {
		t.Errorf("first connect carried %v, want nil", last)
	}

	if err := g.StartUpdates(5 * time.Millisecond); err != nil {
		t.Fatalf("StartUpdates() error = %v", err)
	}
	_, _ = c.Write([]byte(`{"class":"VERSION","release":"3.25"}` + "\n"))
	_, _ = c.Write([]byte(`{"class":"TPV","mode":3,"lat":45.5,"lon":-122.6,"eph":3}` + "\n"))

	if r := nextFix(t, rec); r.Latitude != 45.5 || r.Longitude != -122.6 {
		t.Errorf("fix = %+v", r)
	}

	c.Close()
	recv(t, rec.lost, "connection lost")

	c2 := recv(t, conns, "reconnection")
	defer c2.Close()
	expectWatch(t, c2)
	if last := recv(t, rec.connected, "reconnected"); last == nil || last.Latitude != 45.5 {
		t.Errorf("reconnect carried %v, want last fix", last)
	}
}

func TestGPSD_ConnectFailureRetries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	g := NewGPSD(addr, fastOpts...)
	rec := newRecorder()
	if err := g.Connect(context.Background(), rec); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	recv(t, rec.failed, "first failure")
	recv(t, rec.failed, "retry failure")

	if err := g.Disconnect(); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
	if err := g.Disconnect(); err != nil {
		t.Errorf("second Disconnect() error = %v", err)
	}
}

func TestGPSD_StartUpdatesBeforeConnect(t *testing.T) {
	if err := NewGPSD("").StartUpdates(time.Second); err == nil {
		t.Error("StartUpdates() before Connect = nil error")
	}
}
