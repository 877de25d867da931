package capability

import (
	"context"

	"tcpsock/internal/session"
	"tcpsock/util"
)

// Relay copies between the connection and the session's stdin/stdout.
type Relay struct{}

// Handle runs the relay until the remote side finishes.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	stats, err := util.BidirectionalCopy(ctx, sess.Conn, sess.Stdin, sess.Stdout)
	sess.Logger.Verbose("%s: sent %d bytes, received %d bytes",
		sess.Remote, stats.Sent, stats.Received)
	return err
}
