package socket

import sockerr "tcpsock/internal/errors"

// SocketError is the concrete error type returned by this package.
type SocketError = sockerr.SocketError

// Kind classifies a SocketError.
type Kind = sockerr.Kind

// Failure kinds.  Every error returned by this package carries one.
const (
	KindUnknown      = sockerr.KindUnknown
	KindSocket       = sockerr.KindSocket
	KindResolve      = sockerr.KindResolve
	KindConnect      = sockerr.KindConnect
	KindTimeout      = sockerr.KindTimeout
	KindSockError    = sockerr.KindSockError
	KindNotConnected = sockerr.KindNotConnected
	KindClosed       = sockerr.KindClosed
	KindPeerClosed   = sockerr.KindPeerClosed
	KindIO           = sockerr.KindIO
)

// Sentinels usable with errors.Is.
var (
	ErrNotConnected = sockerr.ErrNotConnected
	ErrClosed       = sockerr.ErrClosed
	ErrTimeout      = sockerr.ErrTimeout
	ErrPeerClosed   = sockerr.ErrPeerClosed
	ErrNoDescriptor = sockerr.ErrNoDescriptor
	ErrNoAddress    = sockerr.ErrNoAddress
)

// KindOf returns the Kind of the first SocketError in err's chain.
func KindOf(err error) Kind { return sockerr.KindOf(err) }
