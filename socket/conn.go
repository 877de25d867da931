package socket

import (
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"

	sockerr "tcpsock/internal/errors"
	"tcpsock/util"
)

var (
	_ net.Conn      = (*Socket)(nil)
	_ io.ReaderFrom = (*Socket)(nil)
	_ net.Conn      = fullConn{}
)

// fullConn replaces Write with Send so the io.Writer contract holds:
// a short count always comes with an error.
type fullConn struct{ *Socket }

func (c fullConn) Write(p []byte) (int, error) { return c.Send(p) }

// NetConn returns s as a net.Conn whose Write sends the whole buffer.
// Use it when handing the socket to code that relies on the io.Writer
// contract, such as an SSH or TLS client; Socket.Write on its own may
// stop short without an error.
func (s *Socket) NetConn() net.Conn { return fullConn{s} }

// LocalAddr returns the address the kernel bound for the connection, or
// nil if there is none.
func (s *Socket) LocalAddr() net.Addr {
	if !s.fd.valid() {
		return nil
	}
	sa, err := s.fd.localAddr()
	if err != nil {
		return nil
	}
	if _, ok := sa.(*unix.SockaddrInet4); !ok {
		return nil
	}
	return endpointFromSockaddr(sa).TCPAddr()
}

// RemoteAddr returns the connected endpoint, or nil before a connect.
func (s *Socket) RemoteAddr() net.Addr {
	if s.State() != Connected {
		return nil
	}
	return s.ep.TCPAddr()
}

// SetDeadline sets both the read and write deadlines.
func (s *Socket) SetDeadline(t time.Time) error {
	if err := s.SetReadDeadline(t); err != nil {
		return err
	}
	return s.SetWriteDeadline(t)
}

// SetReadDeadline bounds future Read and Receive calls.  The deadline
// is converted to a per-call receive timeout measured from now; the
// zero time clears it.  A deadline already past expires on the next
// call.
func (s *Socket) SetReadDeadline(t time.Time) error {
	return s.setDeadline("set read deadline", unix.SO_RCVTIMEO, t)
}

// SetWriteDeadline is the send-side counterpart of SetReadDeadline.
func (s *Socket) SetWriteDeadline(t time.Time) error {
	return s.setDeadline("set write deadline", unix.SO_SNDTIMEO, t)
}

func (s *Socket) setDeadline(op string, opt int, t time.Time) error {
	if s.State() == Closed || !s.fd.valid() {
		return sockerr.NewSocket(KindClosed, op, s.addr(), ErrClosed)
	}
	var d time.Duration
	if !t.IsZero() {
		// A zero timeval means "no timeout" to the kernel.
		d = max(time.Until(t), time.Microsecond)
	}
	if err := s.fd.setTimeout(opt, d); err != nil {
		return sockerr.NewSocket(KindIO, op, s.addr(), err)
	}
	return nil
}

// ReadFrom copies r into the socket until r is exhausted, sending every
// chunk in full.  io.Copy uses it when the destination is a Socket.
func (s *Socket) ReadFrom(r io.Reader) (int64, error) {
	if err := s.ready("write"); err != nil {
		return 0, err
	}
	bp := util.RelayBuffers.Get()
	defer util.RelayBuffers.Put(bp)
	buf := *bp

	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err := s.Send(buf[:n]); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}
