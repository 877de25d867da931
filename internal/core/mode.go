// Package core composes transports and capabilities into the modes the
// CLI runs, and picks the mode from a Config.
//
// Layers (bottom → top):
//
//	socket  →  transport  →  capability  →  session  →  core  →  cmd
package core

import "context"

// Mode is one complete run: connect-and-relay or port scan.
type Mode interface {
	Run(ctx context.Context) error
}
