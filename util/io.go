package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	sockerr "tcpsock/internal/errors"
)

// DefaultBufSize is the standard buffer size for relay copies (32 KiB).
const DefaultBufSize = 32 * 1024

// halfCloser is implemented by connections that can end their sending
// side while still reading: *socket.Socket, *net.TCPConn and SSH
// channels.
type halfCloser interface {
	CloseWrite() error
}

// CopyStats reports how many bytes moved in each direction.
type CopyStats struct {
	Sent     int64 // reader → conn
	Received int64 // conn → writer
}

// BidirectionalCopy relays between conn and the r/w pair until the
// remote side finishes or ctx is cancelled.  When r runs dry the
// connection is half-closed so the peer sees end-of-stream while its
// reply still drains into w.
func BidirectionalCopy(ctx context.Context, conn io.ReadWriteCloser, r io.Reader, w io.Writer) (CopyStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		stats CopyStats
		wg    sync.WaitGroup
		errCh = make(chan error, 2)
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		n, err := pooledCopy(w, conn)
		stats.Received = n
		errCh <- err
		cancel()
	}()
	go func() {
		defer wg.Done()
		n, err := pooledCopy(conn, r)
		stats.Sent = n
		if hc, ok := conn.(halfCloser); ok {
			hc.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		// A clean EOF on r must not cut off the peer's reply.
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblocks whichever copy is still running
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if !isHarmless(err) {
			return stats, err
		}
	}
	return stats, nil
}

func pooledCopy(dst io.Writer, src io.Reader) (int64, error) {
	bp := RelayBuffers.Get()
	defer RelayBuffers.Put(bp)
	return io.CopyBuffer(dst, src, *bp)
}

// isHarmless reports errors that are expected while a relay shuts down.
func isHarmless(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, sockerr.ErrClosed),
		errors.Is(err, sockerr.ErrPeerClosed):
		return true
	}
	return false
}
