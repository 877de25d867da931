package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"tcpsock/config"
	"tcpsock/internal/transport"
	"tcpsock/socket"
	"tcpsock/util"
)

// DialFunc establishes a network connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// PortState is the outcome of probing one port.
type PortState int

const (
	PortClosed   PortState = iota // refused, or any failure other than a timeout
	PortOpen                      // the handshake completed
	PortFiltered                  // no answer before the deadline
)

func (s PortState) String() string {
	switch s {
	case PortOpen:
		return "open"
	case PortFiltered:
		return "filtered"
	}
	return "closed"
}

// ScanResult records the state of a single port.
type ScanResult struct {
	Port  int
	State PortState
	Err   error
}

// Open reports whether the connect succeeded.
func (r ScanResult) Open() bool { return r.State == PortOpen }

// ScanMode probes a set of TCP ports on a target host and reports
// which are open.  Each probe is bounded by the Dialer.
type ScanMode struct {
	Dialer  transport.Dialer
	Host    string
	Ports   []int
	Logger  *util.Logger
	Verbose int

	// Resolver, when set, turns Host into an address once before any
	// probe runs.  Left nil when the Dialer resolves remotely.
	Resolver *socket.Resolver

	// Results is filled by Run, in port order.
	Results []ScanResult
}

// Run scans all configured ports and logs the results.  The
// underlying transport is closed when Run returns.
func (m *ScanMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	if len(m.Ports) == 0 {
		return fmt.Errorf("no ports specified for scanning")
	}

	target := m.Host
	if m.Resolver != nil {
		addr, err := m.Resolver.Resolve(ctx, m.Host)
		if err != nil {
			return err
		}
		target = addr.String()
	}

	m.Logger.Verbose("scanning %s (%s) - %d port(s)", m.Host, target, len(m.Ports))

	m.Results = ScanPorts(ctx, target, m.Ports, m.Dialer.Dial)

	open := 0
	for _, r := range m.Results {
		if socket.KindOf(r.Err) == socket.KindResolve {
			return r.Err
		}
		switch {
		case r.Open():
			open++
			m.Logger.Info("%s %d/tcp open", m.Host, r.Port)
		case m.Verbose >= 2:
			m.Logger.Verbose("%s %d/tcp %s - %v", m.Host, r.Port, r.State, r.Err)
		}
	}

	if open == 0 && m.Verbose >= 1 {
		m.Logger.Info("no open ports found on %s", m.Host)
	}
	return ctx.Err()
}

// ScanPorts probes every port concurrently and returns results in the
// same order as the input slice.
func ScanPorts(ctx context.Context, host string, ports []int, dial DialFunc) []ScanResult {
	results := make([]ScanResult, len(ports))
	sem := make(chan struct{}, config.DefaultMaxConcurrentScans)
	var wg sync.WaitGroup

	for i, port := range ports {
		wg.Add(1)
		go func(idx, p int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[idx] = ScanResult{Port: p, State: PortClosed, Err: err}
				return
			}
			conn, err := dial(ctx, "tcp", util.FormatAddr(host, p))
			if err != nil {
				results[idx] = ScanResult{Port: p, State: classify(err), Err: err}
				return
			}
			conn.Close()
			results[idx] = ScanResult{Port: p, State: PortOpen}
		}(i, port)
	}

	wg.Wait()
	return results
}

func classify(err error) PortState {
	if socket.KindOf(err) == socket.KindTimeout || errors.Is(err, context.DeadlineExceeded) {
		return PortFiltered
	}
	return PortClosed
}
