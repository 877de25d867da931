// Package errors provides domain-specific error types for tcpsock.
//
// Every failure the socket layer can produce is a *SocketError carrying a
// Kind, so callers can assert on the exact failure class instead of on
// truthiness or message text.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected    = errors.New("not connected")
	ErrClosed          = errors.New("socket is closed")
	ErrTimeout         = errors.New("operation timed out")
	ErrPeerClosed      = errors.New("connection closed by peer")
	ErrNoDescriptor    = errors.New("socket descriptor not allocated")
	ErrNoAddress       = errors.New("no IPv4 address found")
	ErrTunnelClosed    = errors.New("tunnel is closed")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrHostKeyMismatch = errors.New("host key mismatch")
)

// ── Kinds ────────────────────────────────────────────────────────────

// Kind classifies a socket failure.
type Kind int

const (
	KindUnknown      Kind = iota
	KindSocket            // descriptor could not be created
	KindResolve           // endpoint could not be produced
	KindConnect           // connect syscall (or its setup) failed
	KindTimeout           // bounded connect deadline expired
	KindSockError         // SO_ERROR reported a failure after readiness
	KindNotConnected      // operation requires a connected handle
	KindClosed            // handle was closed
	KindPeerClosed        // zero-length read
	KindIO                // read/write syscall failed
)

func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "socket"
	case KindResolve:
		return "resolve"
	case KindConnect:
		return "connect"
	case KindTimeout:
		return "timeout"
	case KindSockError:
		return "socket error"
	case KindNotConnected:
		return "not connected"
	case KindClosed:
		return "closed"
	case KindPeerClosed:
		return "peer closed"
	case KindIO:
		return "i/o"
	default:
		return "unknown"
	}
}

// ── Structured error types ───────────────────────────────────────────

// SocketError represents a failure in a socket operation.
type SocketError struct {
	Op   string // "socket", "resolve", "connect", "poll", "send", "recv", ...
	Addr string // endpoint involved, may be empty
	Kind Kind
	Err  error // underlying error, may be nil
}

func (e *SocketError) Error() string {
	s := e.Op
	if e.Addr != "" {
		s += " " + e.Addr
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", s, e.Err)
	}
	return fmt.Sprintf("%s: %s", s, e.Kind)
}

func (e *SocketError) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to the error's Kind.  A closed
// handle matches both ErrClosed and ErrNotConnected.
func (e *SocketError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrNotConnected:
		return e.Kind == KindNotConnected || e.Kind == KindClosed
	case ErrClosed:
		return e.Kind == KindClosed
	case ErrPeerClosed:
		return e.Kind == KindPeerClosed
	}
	return false
}

// Timeout implements net.Error.
func (e *SocketError) Timeout() bool { return e.Kind == KindTimeout }

// Temporary implements net.Error.
func (e *SocketError) Temporary() bool { return classifyRetryable(e) }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// NewSocket creates a SocketError.
func NewSocket(kind Kind, op, addr string, err error) *SocketError {
	return &SocketError{Op: op, Addr: addr, Kind: kind, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// KindOf returns the Kind of the first SocketError in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var se *SocketError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a fresh attempt on a new handle might
// succeed.  Caller misuse is never retryable; resolution failures only
// when the resolver says so.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *SocketError
	if errors.As(err, &se) {
		return classifyRetryable(se)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

func classifyRetryable(e *SocketError) bool {
	switch e.Kind {
	case KindConnect, KindTimeout, KindSockError, KindPeerClosed:
		return true
	case KindResolve:
		var dnsErr *net.DNSError
		return errors.As(e.Err, &dnsErr) && dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
