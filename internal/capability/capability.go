// Package capability defines what happens over an established
// connection: relaying local I/O or wiring a child process.
package capability

import (
	"context"

	"tcpsock/internal/session"
)

// Capability handles one session and blocks until the connection is
// done or ctx is cancelled.
type Capability interface {
	Handle(ctx context.Context, sess *session.Session) error
}
