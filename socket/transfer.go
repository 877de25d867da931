package socket

import (
	"io"

	sockerr "tcpsock/internal/errors"
)

// ioFunc is one read or write call.
type ioFunc func([]byte) (int, error)

// sendFull calls write until p is drained.  A call that makes no
// progress without an error ends the loop with io.ErrShortWrite.
func sendFull(write ioFunc, p []byte) (int, error) {
	sent := 0
	for sent < len(p) {
		n, err := write(p[sent:])
		sent += n
		if err != nil {
			return sent, err
		}
		if n == 0 {
			return sent, io.ErrShortWrite
		}
	}
	return sent, nil
}

// recvFull calls read until p is full.  A zero read before that is
// io.EOF.
func recvFull(read ioFunc, p []byte) (int, error) {
	got := 0
	for got < len(p) {
		n, err := read(p[got:])
		got += n
		if err != nil {
			return got, err
		}
		if n == 0 {
			return got, io.EOF
		}
	}
	return got, nil
}

// Send writes all of p, retrying partial writes.  It returns len(p) on
// success and (0, err) on any failure; a partial count is never
// reported.
func (s *Socket) Send(p []byte) (int, error) {
	if err := s.ready("send"); err != nil {
		return 0, err
	}
	n, err := sendFull(s.fd.write, p)
	s.opts.metrics.BytesSent(int64(n))
	if err != nil {
		return 0, s.ioError("send", err)
	}
	return n, nil
}

// Receive fills p completely, retrying partial reads.  End-of-stream
// before p is full is KindPeerClosed.  Like Send, it returns (0, err)
// on failure.
func (s *Socket) Receive(p []byte) (int, error) {
	if err := s.ready("receive"); err != nil {
		return 0, err
	}
	n, err := recvFull(s.fd.read, p)
	s.opts.metrics.BytesReceived(int64(n))
	if err != nil {
		return 0, s.ioError("receive", err)
	}
	return n, nil
}

// readSome is Read without the io.EOF translation: end-of-stream comes
// back as KindPeerClosed.
func (s *Socket) readSome(p []byte) (int, error) {
	n, err := s.Read(p)
	if err == io.EOF {
		s.opts.logger.Debug("receive %s: peer closed", s.addr())
		return 0, sockerr.NewSocket(KindPeerClosed, "receive", s.addr(), io.EOF)
	}
	return n, err
}
