package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"tcpsock/internal/metrics"
	"tcpsock/socket"
)

func greeter(t *testing.T, msg string) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte(msg)) //nolint:errcheck
	}()
	return ln.Addr().String()
}

// TestSocketDialer_Connect verifies a bounded dial reaches a local
// server and exchanges data.
func TestSocketDialer_Connect(t *testing.T) {
	addr := greeter(t, "hello from server\n")
	m := metrics.New()
	d := &SocketDialer{Timeout: 2 * time.Second, Bounded: true, Metrics: m}

	conn, err := d.Dial(context.Background(), "tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "hello from server\n" {
		t.Errorf("got %q", got)
	}
	if m.ConnectAttempts() != 1 {
		t.Errorf("attempts = %d", m.ConnectAttempts())
	}
}

func TestSocketDialer_Unbounded(t *testing.T) {
	addr := greeter(t, "x")
	d := &SocketDialer{}
	s, err := d.DialSocket(context.Background(), "tcp4", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if !s.IsConnected() {
		t.Error("not connected")
	}
}

func TestSocketDialer_Refused(t *testing.T) {
	ln, _ := net.Listen("tcp4", "127.0.0.1:0")
	addr := ln.Addr().String()
	ln.Close()

	d := &SocketDialer{Timeout: time.Second, Bounded: true}
	_, err := d.Dial(context.Background(), "tcp", addr)
	if k := socket.KindOf(err); k != socket.KindConnect && k != socket.KindSockError {
		t.Fatalf("kind = %v (err=%v)", k, err)
	}
}

func TestSocketDialer_BadInput(t *testing.T) {
	d := &SocketDialer{}
	for _, tc := range []struct{ network, addr string }{
		{"udp", "127.0.0.1:53"},
		{"tcp", "no-port"},
		{"tcp", "127.0.0.1:70000"},
	} {
		if _, err := d.Dial(context.Background(), tc.network, tc.addr); err == nil {
			t.Errorf("Dial(%s, %s) succeeded", tc.network, tc.addr)
		}
	}
}

// TestSocketDialer_ContextCancel verifies a cancelled context stops the
// dial before any socket is created.
func TestSocketDialer_ContextCancel(t *testing.T) {
	m := metrics.New()
	d := &SocketDialer{Timeout: 5 * time.Second, Bounded: true, Metrics: m}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dial(ctx, "tcp", "127.0.0.1:1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if m.ConnectAttempts() != 0 {
		t.Error("connect attempted after cancel")
	}
}

// fakeTunnel records calls and returns one end of a pipe from Dial.
type fakeTunnel struct {
	mu       sync.Mutex
	connects int
	closes   int
	alive    bool
	fail     error
}

func (f *fakeTunnel) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.fail != nil {
		return f.fail
	}
	f.alive = true
	return nil
}

func (f *fakeTunnel) Dial(context.Context, string, string) (net.Conn, error) {
	a, b := net.Pipe()
	b.Close()
	return a, nil
}

func (f *fakeTunnel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.alive = false
	return nil
}

func (f *fakeTunnel) IsAlive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func TestSSHDialer_LazyConnect(t *testing.T) {
	ft := &fakeTunnel{}
	d := NewTunnelDialer(ft, nil)

	for i := 0; i < 3; i++ {
		c, err := d.Dial(context.Background(), "tcp", "10.0.0.1:80")
		if err != nil {
			t.Fatal(err)
		}
		c.Close()
	}
	if ft.connects != 1 {
		t.Errorf("connects = %d, want 1", ft.connects)
	}

	// A dead tunnel is reconnected on the next Dial.
	ft.mu.Lock()
	ft.alive = false
	ft.mu.Unlock()
	if _, err := d.Dial(context.Background(), "tcp", "10.0.0.1:80"); err != nil {
		t.Fatal(err)
	}
	if ft.connects != 2 {
		t.Errorf("connects = %d, want 2", ft.connects)
	}

	d.Close()
	d.Close()
	if ft.closes != 1 {
		t.Errorf("closes = %d, want 1", ft.closes)
	}
}

func TestSSHDialer_ConnectError(t *testing.T) {
	boom := errors.New("boom")
	d := NewTunnelDialer(&fakeTunnel{fail: boom}, nil)
	if _, err := d.Dial(context.Background(), "tcp", "x:1"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close after failed connect: %v", err)
	}
}
