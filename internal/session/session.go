// Package session binds one established connection to the local I/O it
// serves, so capabilities never touch os.Stdin or os.Stdout directly.
package session

import (
	"io"
	"net"

	"tcpsock/util"
)

// Session is the runtime context for a single connection.
type Session struct {
	Conn   net.Conn
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger

	// Remote is the address the user asked for, which may differ from
	// Conn.RemoteAddr when the connection is forwarded by a gateway.
	Remote string
}

// New creates a Session bound to conn and the given I/O pair.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	s := &Session{
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	}
	if ra := conn.RemoteAddr(); ra != nil {
		s.Remote = ra.String()
	}
	return s
}
