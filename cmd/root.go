// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"tcpsock/config"
	"tcpsock/internal/core"
	"tcpsock/internal/metrics"
	"tcpsock/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X tcpsock/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the appropriate tcpsock mode.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stderr)
}

func execute(ctx context.Context, args []string, stderr io.Writer) error {
	cfg := &config.Config{}
	config.LoadFromEnv(cfg)
	envVerbose := cfg.Verbose

	fs := flag.NewFlagSet("tcpsock", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flag defaults are the environment values, so flags win.

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")
	fs.BoolVarP(&cfg.ZeroIO, "zero-io", "z", cfg.ZeroIO, "Zero-I/O mode (port scanning)")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retry refused or timed-out connects N times")

	var timeoutSec float64
	fs.Float64VarP(&timeoutSec, "timeout", "w", cfg.Timeout.Seconds(),
		"Connect timeout in seconds (0 checks once; default waits for the kernel)")

	// ── execution ────────────────────────────────────────────────
	fs.StringVarP(&cfg.Execute, "exec", "e", "", "Execute program after connect")
	fs.StringVarP(&cfg.Command, "command", "c", "", "Execute shell command after connect")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Connect through an SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print connection statistics as JSON on exit")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(stderr, fs)
		return nil
	}
	if showVersion {
		fmt.Printf("tcpsock %s\n", version)
		return nil
	}

	if fs.Changed("timeout") {
		cfg.SetTimeout(time.Duration(timeoutSec * float64(time.Second)))
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── gateway spec ─────────────────────────────────────────────
	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)

	var stats *metrics.Collector
	if cfg.Stats {
		stats = metrics.New()
	}

	mode, err := core.Build(cfg, logger, stats)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(stderr, "configuration valid: %T for %s\n", mode, cfg.Host)
		return nil
	}

	err = mode.Run(ctx)
	if stats != nil {
		fmt.Fprintln(stderr, stats.JSON())
	}
	return err
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional reads "host [port …]".  A port from the environment
// stands in when none is given.
func parsePositional(cfg *config.Config, remaining []string) error {
	if len(remaining) >= 1 {
		cfg.Host = remaining[0]
	}
	if cfg.Host == "" {
		return fmt.Errorf("hostname required (use --help for usage)")
	}
	if len(remaining) < 2 {
		if cfg.Port == 0 {
			return fmt.Errorf("port required")
		}
		return nil
	}

	for _, arg := range remaining[1:] {
		pr, err := config.ParsePortSpec(arg)
		if err != nil {
			return fmt.Errorf("port %q: %w", arg, err)
		}
		cfg.Ports = append(cfg.Ports, pr)
	}
	cfg.Port = cfg.Ports[0].Start
	return nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `tcpsock - IPv4 TCP client v%s

Connects with a bounded, non-blocking handshake and relays stdin/stdout.

Usage:
  tcpsock [options] <host> <port>              Connect
  tcpsock -z [options] <host> <ports...>       Scan
  tcpsock -T user@gateway <host> <port>        Through an SSH gateway

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  tcpsock -w 2 example.com 80                  Give up after two seconds
  tcpsock -vz -w 0.5 10.0.0.1 20-25 80 443     Port scan
  tcpsock --retries 3 db-internal 5432         Retry while the server starts
  tcpsock -T admin@bastion db-internal 5432    SSH gateway
  echo "hello" | tcpsock host.example.com 9000 Pipe data

Environment:
  TCPSOCK_HOST, TCPSOCK_PORT, TCPSOCK_TIMEOUT, TCPSOCK_RETRIES, TCPSOCK_NO_DNS,
  TCPSOCK_TUNNEL, TCPSOCK_SSH_KEY, TCPSOCK_VERBOSE, TCPSOCK_STATS, ...
`)
}
