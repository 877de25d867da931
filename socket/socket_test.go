package socket

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"tcpsock/internal/metrics"
	"tcpsock/util"
)

// listen starts a loopback listener and returns its Endpoint.
func listen(t testing.TB) (net.Listener, Endpoint) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	ap := ln.Addr().(*net.TCPAddr).AddrPort()
	ep, err := EndpointFrom(ap.Addr(), ap.Port())
	if err != nil {
		t.Fatal(err)
	}
	return ln, ep
}

// closedPort returns an Endpoint on loopback with nothing listening.
func closedPort(t testing.TB) Endpoint {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()
	return Endpoint{Addr: [4]byte{127, 0, 0, 1}, Port: port}
}

// pair returns two connected Sockets backed by a socketpair.
func pair(t testing.TB, opts ...Option) (*Socket, *Socket) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatal(err)
	}
	a, err := FromFD(fds[0], Endpoint{}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromFD(fds[1], Endpoint{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

// accept serves one connection with fn in the background.
func accept(ln net.Listener, fn func(net.Conn)) {
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		Unconnected: "unconnected",
		Connected:   "connected",
		Closed:      "closed",
		State(9):    "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d) = %q, want %q", s, got, want)
		}
	}
}

func TestNew_Unconnected(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.State() != Unconnected {
		t.Errorf("state = %v, want unconnected", s.State())
	}
	if s.FD() < 0 {
		t.Errorf("FD = %d, want a descriptor", s.FD())
	}
	if s.RemoteAddr() != nil {
		t.Errorf("RemoteAddr = %v before connect", s.RemoteAddr())
	}
}

func TestFromFD_Invalid(t *testing.T) {
	_, err := FromFD(-1, Endpoint{})
	if KindOf(err) != KindSocket {
		t.Fatalf("kind = %v, want socket (err=%v)", KindOf(err), err)
	}
	if !errors.Is(err, ErrNoDescriptor) {
		t.Errorf("err = %v, want ErrNoDescriptor", err)
	}
}

func TestSocket_IOBeforeConnect(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	buf := make([]byte, 4)
	checks := map[string]error{}
	_, checks["Read"] = s.Read(buf)
	_, checks["Write"] = s.Write(buf)
	_, checks["Send"] = s.Send(buf)
	_, checks["Receive"] = s.Receive(buf)
	checks["CloseWrite"] = s.CloseWrite()

	for op, err := range checks {
		if KindOf(err) != KindNotConnected {
			t.Errorf("%s: kind = %v, want not connected", op, KindOf(err))
		}
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("%s: err = %v, want ErrNotConnected", op, err)
		}
	}
}

func TestSocket_CloseIdempotent(t *testing.T) {
	m := metrics.New()
	a, _ := pair(t, WithMetrics(m))

	if m.ActiveConnections() != 1 {
		t.Fatalf("active = %d, want 1", m.ActiveConnections())
	}
	if err := a.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if a.State() != Closed {
		t.Errorf("state = %v, want closed", a.State())
	}
	if a.FD() != -1 {
		t.Errorf("FD = %d after close, want -1", a.FD())
	}
	if m.ActiveConnections() != 0 {
		t.Errorf("active = %d after close, want 0", m.ActiveConnections())
	}
}

func TestSocket_IOAfterClose(t *testing.T) {
	a, _ := pair(t)
	a.Close()

	buf := make([]byte, 4)
	_, rerr := a.Read(buf)
	_, serr := a.Send(buf)
	for _, err := range []error{rerr, serr} {
		if KindOf(err) != KindClosed {
			t.Errorf("kind = %v, want closed (err=%v)", KindOf(err), err)
		}
		if !errors.Is(err, ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", err)
		}
	}
	if err := a.Connect(closedPort(t)); KindOf(err) != KindClosed {
		t.Errorf("Connect after Close: kind = %v, want closed", KindOf(err))
	}
}

func TestSocket_ReadWrite(t *testing.T) {
	m := metrics.New()
	a, b := pair(t, WithMetrics(m))

	if n, err := b.Write([]byte("ping")); err != nil || n != 4 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	buf := make([]byte, 16)
	n, err := a.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := string(buf[:n]); got != "ping" {
		t.Errorf("got %q, want %q", got, "ping")
	}
	if m.TotalBytesIn() != 4 {
		t.Errorf("bytes in = %d, want 4", m.TotalBytesIn())
	}

	if n, err := a.Read(nil); n != 0 || err != nil {
		t.Errorf("empty Read = %d, %v", n, err)
	}

	b.Close()
	if _, err := a.Read(buf); err != io.EOF {
		t.Errorf("Read after peer close = %v, want io.EOF", err)
	}
}

func TestSocket_CloseWrite(t *testing.T) {
	a, b := pair(t)

	if err := a.CloseWrite(); err != nil {
		t.Fatalf("CloseWrite: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := b.Read(buf); err != io.EOF {
		t.Fatalf("peer Read = %v, want io.EOF", err)
	}
	// The other direction still works.
	if _, err := b.Send([]byte("back")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Receive(buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "back" {
		t.Errorf("got %q", buf)
	}
}

func TestSocket_CloseUnblocksRead(t *testing.T) {
	a, _ := pair(t)

	done := make(chan error, 1)
	go func() {
		_, err := a.Read(make([]byte, 8))
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	a.Close()

	select {
	case err := <-done:
		if KindOf(err) != KindClosed {
			t.Fatalf("Read after concurrent Close: kind = %v, want closed (err=%v)", KindOf(err), err)
		}
		if !errors.Is(err, ErrClosed) {
			t.Errorf("errors.Is(err, ErrClosed) = false (err=%v)", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read still blocked after Close")
	}
}

func TestSocket_ConnectLogs(t *testing.T) {
	ln, ep := listen(t)
	accept(ln, func(net.Conn) {})

	var out bytes.Buffer
	log := util.NewLogger(1)
	log.SetOutput(&out)

	s, err := DialEndpoint(ep, WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	want := "[socket] connected to 127.0.0.1 on port " + strconv.Itoa(int(ep.Port)) + "..."
	if !strings.Contains(out.String(), want) {
		t.Errorf("log = %q, want it to contain %q", out.String(), want)
	}

	out.Reset()
	bad, _ := New(WithLogger(log))
	defer bad.Close()
	bad.ConnectTimeout(closedPort(t), time.Second) //nolint:errcheck
	if !strings.Contains(out.String(), "[socket] error connecting") {
		t.Errorf("log = %q, want a connect error line", out.String())
	}
}
