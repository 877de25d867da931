// Package config holds the runtime configuration for tcpsock and the
// parsers for port and gateway specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	sockerr "tcpsock/internal/errors"
)

// Config holds every tuneable for one tcpsock run.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host  string
	Port  int         // primary destination port
	Ports []PortRange // every destination port spec (scanning)
	NoDNS bool

	// Timeout bounds each connect when TimeoutSet is true.  Without -w
	// the connect waits as long as the kernel does; -w 0 checks once.
	Timeout    time.Duration
	TimeoutSet bool

	Retries int // extra connect attempts for retryable failures

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec     string // raw [user@]host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Execution ────────────────────────────────────────────────────
	Execute string // -e: program path
	Command string // -c: shell command

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	ZeroIO  bool
	Stats   bool
}

// SetTimeout records an explicit connect timeout.
func (c *Config) SetTimeout(d time.Duration) {
	c.Timeout = d
	c.TimeoutSet = true
}

// ScanTimeout is the per-port bound used by -z, which is never
// unbounded.
func (c *Config) ScanTimeout() time.Duration {
	if c.TimeoutSet {
		return c.Timeout
	}
	return DefaultScanTimeout
}

// ── Port helpers ─────────────────────────────────────────────────────

// PortRange is an inclusive start–end pair.
type PortRange struct {
	Start int
	End   int
}

// Expand returns every port in the range.
func (pr PortRange) Expand() []int {
	out := make([]int, 0, pr.End-pr.Start+1)
	for p := pr.Start; p <= pr.End; p++ {
		out = append(out, p)
	}
	return out
}

// AllPorts flattens every PortRange into a single slice.
func (c *Config) AllPorts() []int {
	var out []int
	for _, pr := range c.Ports {
		out = append(out, pr.Expand()...)
	}
	return out
}

// ParsePortSpec accepts "80" or "80-90".
func ParsePortSpec(spec string) (PortRange, error) {
	lo, hi, isRange := strings.Cut(spec, "-")
	start, err := parsePort(lo)
	if err != nil {
		return PortRange{}, err
	}
	if !isRange {
		return PortRange{Start: start, End: start}, nil
	}
	end, err := parsePort(hi)
	if err != nil {
		return PortRange{}, err
	}
	if start > end {
		return PortRange{}, fmt.Errorf("invalid port range %d-%d", start, end)
	}
	return PortRange{Start: start, End: end}, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", p)
	}
	return p, nil
}

// ── Gateway-spec parser ──────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec splits "admin@bastion.example.com:2222" into its
// parts.  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q, expected [user@]host[:port]", spec)
	}
	user, host, port = m[1], m[2], DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Failures are *errors.ConfigError.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &sockerr.ConfigError{Field: "host", Message: "hostname is required",
			Hint: "use --help for usage"}
	}
	if c.Port == 0 && len(c.Ports) == 0 {
		return &sockerr.ConfigError{Field: "port", Message: "destination port is required"}
	}
	if !c.ZeroIO && len(c.AllPorts()) > 1 {
		return &sockerr.ConfigError{Field: "port", Value: len(c.AllPorts()),
			Message: "several ports given without -z", Hint: "add -z to scan"}
	}
	if c.TimeoutSet && c.Timeout < 0 {
		return &sockerr.ConfigError{Field: "timeout", Value: c.Timeout,
			Message: "must not be negative"}
	}
	if c.Retries < 0 {
		return &sockerr.ConfigError{Field: "retries", Value: c.Retries,
			Message: "must not be negative"}
	}
	if c.Execute != "" && c.Command != "" {
		return &sockerr.ConfigError{Field: "exec", Message: "-e and -c are mutually exclusive"}
	}
	if c.ZeroIO && (c.Execute != "" || c.Command != "") {
		return &sockerr.ConfigError{Field: "zero", Message: "-z cannot be combined with -e or -c"}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &sockerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec,
			Message: "tunnel host is required"}
	}
	return nil
}
