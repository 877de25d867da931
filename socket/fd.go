package socket

import (
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// netFD owns exactly one OS socket descriptor.  It is never copied; the
// Socket that created it holds the only pointer.  The descriptor value
// is atomic so that Close from another goroutine can interrupt a
// blocked Read without a data race.
type netFD struct {
	sysfd atomic.Int64 // -1 once released
}

func newFD() (*netFD, error) {
	s, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(s)
	return adoptFD(s), nil
}

func adoptFD(s int) *netFD {
	fd := &netFD{}
	fd.sysfd.Store(int64(s))
	return fd
}

func (fd *netFD) raw() int { return int(fd.sysfd.Load()) }

func (fd *netFD) valid() bool { return fd != nil && fd.sysfd.Load() >= 0 }

// close releases the descriptor.  Only the first call reaches the OS.
func (fd *netFD) close() error {
	s := fd.sysfd.Swap(-1)
	if s < 0 {
		return nil
	}
	// shutdown wakes any goroutine blocked in read on this descriptor.
	unix.Shutdown(int(s), unix.SHUT_RDWR) //nolint:errcheck
	return os.NewSyscallError("close", unix.Close(int(s)))
}

func (fd *netFD) shutdown(how int) error {
	return os.NewSyscallError("shutdown", unix.Shutdown(fd.raw(), how))
}

// ── options ──────────────────────────────────────────────────────────

func (fd *netFD) setReuseAddr() error {
	return os.NewSyscallError("setsockopt",
		unix.SetsockoptInt(fd.raw(), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

func (fd *netFD) setNoDelay() error {
	return os.NewSyscallError("setsockopt",
		unix.SetsockoptInt(fd.raw(), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1))
}

func (fd *netFD) flags() (int, error) {
	fl, err := unix.FcntlInt(uintptr(fd.raw()), unix.F_GETFL, 0)
	if err != nil {
		return 0, os.NewSyscallError("fcntl", err)
	}
	return fl, nil
}

func (fd *netFD) setFlags(fl int) error {
	_, err := unix.FcntlInt(uintptr(fd.raw()), unix.F_SETFL, fl)
	return os.NewSyscallError("fcntl", err)
}

// soError fetches and clears the pending socket error.
func (fd *netFD) soError() (unix.Errno, error) {
	n, err := unix.GetsockoptInt(fd.raw(), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return unix.Errno(n), nil
}

// setTimeout sets SO_RCVTIMEO or SO_SNDTIMEO.  d == 0 clears it.
func (fd *netFD) setTimeout(opt int, d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return os.NewSyscallError("setsockopt",
		unix.SetsockoptTimeval(fd.raw(), unix.SOL_SOCKET, opt, &tv))
}

func (fd *netFD) localAddr() (unix.Sockaddr, error) {
	sa, err := unix.Getsockname(fd.raw())
	return sa, os.NewSyscallError("getsockname", err)
}

// ── connect ──────────────────────────────────────────────────────────

func (fd *netFD) connect(sa unix.Sockaddr) error {
	return unix.Connect(fd.raw(), sa)
}

// waitReady blocks until the descriptor is readable or writable.  With
// bounded set it gives up after timeout and reports ready=false; a zero
// timeout polls exactly once.  EINTR restarts the wait with whatever
// time remains.
func (fd *netFD) waitReady(timeout time.Duration, bounded bool) (ready bool, err error) {
	var deadline time.Time
	if bounded {
		deadline = time.Now().Add(timeout)
	}
	for {
		ms := -1
		if bounded {
			ms = pollMillis(time.Until(deadline))
		}
		pfd := []unix.PollFd{{
			Fd:     int32(fd.raw()),
			Events: unix.POLLIN | unix.POLLOUT,
		}}
		n, err := unix.Poll(pfd, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, os.NewSyscallError("poll", err)
		}
		return n > 0, nil
	}
}

// pollMillis rounds d up to whole milliseconds so a short positive
// deadline never becomes a zero-wait poll.
func pollMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}

// ── I/O ──────────────────────────────────────────────────────────────

// read and write retry EINTR and never report a negative count.

func (fd *netFD) read(p []byte) (int, error) {
	for {
		n, err := unix.Read(fd.raw(), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (fd *netFD) write(p []byte) (int, error) {
	for {
		n, err := unix.Write(fd.raw(), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}
