package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// Tuneable defaults shared by CLI flags and environment loading.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultScanTimeout is the per-port bound for -z without -w.
	DefaultScanTimeout = 3 * time.Second

	// DefaultMaxConcurrentScans caps simultaneous probes.  Each probe
	// holds one descriptor.
	DefaultMaxConcurrentScans = 100

	// DefaultConnTimeout bounds the SSH gateway connect and handshake.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetryBaseDelay and DefaultRetryMaxDelay shape the backoff
	// between --retries attempts.
	DefaultRetryBaseDelay = 250 * time.Millisecond
	DefaultRetryMaxDelay  = 5 * time.Second
)
