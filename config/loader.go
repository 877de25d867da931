package config

// loader.go - configuration from environment variables.
//
// Precedence (highest wins):
//   1. CLI flags  (cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix starts every supported variable name.  Booleans accept
// "1", "true" or "yes" (case-insensitive).
const EnvPrefix = "TCPSOCK_"

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// values override.  Call it before flag parsing so flags win.
func LoadFromEnv(cfg *Config) {
	if v := env("HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("PORT"); v > 0 {
		cfg.Port = v
	}
	if envBool("NO_DNS") {
		cfg.NoDNS = true
	}
	if v, ok := envDuration("TIMEOUT"); ok {
		cfg.SetTimeout(v)
	}
	if v := envInt("RETRIES"); v > 0 {
		cfg.Retries = v
	}

	// SSH gateway
	if v := env("TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := env("SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := env("KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func env(key string) string { return os.Getenv(EnvPrefix + key) }

func envInt(key string) int {
	n, err := strconv.Atoi(env(key))
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(env(key))
	return v == "1" || v == "true" || v == "yes"
}

// envDuration accepts whole seconds ("5") or a Go duration ("250ms").
// Zero is valid and means a single readiness check.
func envDuration(key string) (time.Duration, bool) {
	v := env(key)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, true
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d, true
	}
	return 0, false
}
