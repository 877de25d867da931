package socket

import (
	"testing"
	"time"
)

// BenchmarkSendReceive measures a full-buffer round trip across a
// socketpair, the hot path for request/response callers.
func BenchmarkSendReceive(b *testing.B) {
	x, y := pair(b)
	msg := make([]byte, 4096)
	back := make([]byte, len(msg))

	b.SetBytes(int64(len(msg)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := x.Send(msg); err != nil {
			b.Fatal(err)
		}
		if _, err := y.Receive(back); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkConnectTimeout measures a bounded connect to loopback,
// including descriptor creation and teardown.
func BenchmarkConnectTimeout(b *testing.B) {
	ln, ep := listen(b)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := New()
		if err != nil {
			b.Fatal(err)
		}
		if err := s.ConnectTimeout(ep, time.Second); err != nil {
			b.Fatal(err)
		}
		s.Close()
	}
}
