// Package metrics counts what a set of sockets did during a tcpsock run:
// connect outcomes and latency, bytes moved, and failures by kind.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	sockerr "tcpsock/internal/errors"
)

// Collector tracks connect outcomes, traffic and failures.
type Collector struct {
	connectAttempts    atomic.Int64
	connectTimeouts    atomic.Int64
	connectsOK         atomic.Int64
	connectNanos       atomic.Int64 // sum over successful connects
	connectMaxNanos    atomic.Int64
	connectionsActive  atomic.Int64
	connectionsAdopted atomic.Int64
	bytesIn            atomic.Int64
	bytesOut           atomic.Int64
	errorsTotal        atomic.Int64

	mu           sync.Mutex
	startTime    time.Time
	errorsByKind map[string]int64
	lastError    time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now(), errorsByKind: make(map[string]int64)}
}

// ── Connect ──────────────────────────────────────────────────────────

// ConnectAttempt records the start of a connect call.
func (c *Collector) ConnectAttempt() {
	if c == nil {
		return
	}
	c.connectAttempts.Add(1)
}

// ConnectEstablished records a successful connect that took d and
// marks the connection active.
func (c *Collector) ConnectEstablished(d time.Duration) {
	if c == nil {
		return
	}
	c.connectsOK.Add(1)
	c.connectNanos.Add(int64(d))
	for {
		cur := c.connectMaxNanos.Load()
		if int64(d) <= cur || c.connectMaxNanos.CompareAndSwap(cur, int64(d)) {
			break
		}
	}
	c.connectionsActive.Add(1)
}

// ConnectAttempts returns the number of connect calls recorded.
func (c *Collector) ConnectAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.connectAttempts.Load()
}

// ConnectTimeouts returns how many connects ran out of time.
func (c *Collector) ConnectTimeouts() int64 {
	if c == nil {
		return 0
	}
	return c.connectTimeouts.Load()
}

// ConnectsEstablished returns the number of successful connects.
func (c *Collector) ConnectsEstablished() int64 {
	if c == nil {
		return 0
	}
	return c.connectsOK.Load()
}

// MeanConnectTime is the average handshake time of successful connects.
func (c *Collector) MeanConnectTime() time.Duration {
	if c == nil {
		return 0
	}
	n := c.connectsOK.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(c.connectNanos.Load() / n)
}

// ── Connections ──────────────────────────────────────────────────────

// ConnectionOpened records a descriptor that arrived already connected.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsAdopted.Add(1)
	c.connectionsActive.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections counts connects plus adopted descriptors.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectsOK.Load() + c.connectionsAdopted.Load()
}

// ── Traffic ──────────────────────────────────────────────────────────

// BytesReceived records n bytes read from a socket.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to a socket.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError counts err under its failure kind and keeps it as the
// most recent error.  A timeout from a connect also counts toward
// ConnectTimeouts.
func (c *Collector) RecordError(err error) {
	if c == nil || err == nil {
		return
	}
	c.errorsTotal.Add(1)

	kind := sockerr.KindOf(err)
	var se *sockerr.SocketError
	if kind == sockerr.KindTimeout && errors.As(err, &se) && se.Op == "connect" {
		c.connectTimeouts.Add(1)
	}

	c.mu.Lock()
	if c.errorsByKind == nil {
		c.errorsByKind = make(map[string]int64)
	}
	c.errorsByKind[kind.String()]++
	c.lastError = time.Now()
	c.lastErrorMsg = err.Error()
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// Errors returns the error count for one kind.
func (c *Collector) Errors(kind sockerr.Kind) int64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorsByKind[kind.String()]
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string           `json:"uptime"`
	ConnectAttempts   int64            `json:"connect_attempts"`
	ConnectsOK        int64            `json:"connects_established"`
	ConnectTimeouts   int64            `json:"connect_timeouts"`
	MeanConnectTime   string           `json:"mean_connect_time,omitempty"`
	MaxConnectTime    string           `json:"max_connect_time,omitempty"`
	ConnectionsActive int64            `json:"connections_active"`
	ConnectionsTotal  int64            `json:"connections_total"`
	BytesIn           int64            `json:"bytes_in"`
	BytesOut          int64            `json:"bytes_out"`
	ErrorsTotal       int64            `json:"errors_total"`
	ErrorsByKind      map[string]int64 `json:"errors_by_kind,omitempty"`
	LastError         string           `json:"last_error,omitempty"`
	LastErrorMessage  string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectAttempts:   c.connectAttempts.Load(),
		ConnectsOK:        c.connectsOK.Load(),
		ConnectTimeouts:   c.connectTimeouts.Load(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.TotalConnections(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if s.ConnectsOK > 0 {
		s.MeanConnectTime = c.MeanConnectTime().String()
		s.MaxConnectTime = time.Duration(c.connectMaxNanos.Load()).String()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errorsByKind) > 0 {
		s.ErrorsByKind = make(map[string]int64, len(c.errorsByKind))
		for k, v := range c.errorsByKind {
			s.ErrorsByKind[k] = v
		}
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as indented JSON.
func (c *Collector) JSON() string {
	b, _ := json.MarshalIndent(c.Snapshot(), "", "  ")
	return string(b)
}
