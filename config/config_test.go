package config

import (
	"testing"
	"time"
)

// ── ParseTunnelSpec ──────────────────────────────────────────────────

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"full", "admin@bastion.example.com:2222", "admin", "bastion.example.com", 2222, false},
		{"no port", "root@gateway", "root", "gateway", 22, false},
		{"no user", "jump-host:2200", "", "jump-host", 2200, false},
		{"host only", "gateway.local", "", "gateway.local", 22, false},
		{"bad port", "user@host:999999", "", "", 0, true},
		{"empty", "", "", "", 0, true},
		{"colon only", ":", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user != tt.wantUser || host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					user, host, port, tt.wantUser, tt.wantHost, tt.wantPort)
			}
		})
	}
}

// ── ParsePortSpec ────────────────────────────────────────────────────

func TestParsePortSpec(t *testing.T) {
	tests := []struct {
		input     string
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{"80", 80, 80, false},
		{"443", 443, 443, false},
		{"80-90", 80, 90, false},
		{"1-65535", 1, 65535, false},
		{"0", 0, 0, true},
		{"70000", 0, 0, true},
		{"abc", 0, 0, true},
		{"90-80", 0, 0, true}, // reversed range
		{"0-100", 0, 0, true}, // start below 1
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			pr, err := ParsePortSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePortSpec(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if pr.Start != tt.wantStart || pr.End != tt.wantEnd {
				t.Errorf("got {%d, %d}, want {%d, %d}", pr.Start, pr.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

// ── PortRange.Expand ─────────────────────────────────────────────────

func TestPortRangeExpand(t *testing.T) {
	pr := PortRange{Start: 20, End: 25}
	got := pr.Expand()
	want := []int{20, 21, 22, 23, 24, 25}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

// ── Config.Validate ──────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid connect", Config{Host: "example.com", Port: 80}, false},
		{"valid scan", Config{Host: "x", ZeroIO: true, Ports: []PortRange{{20, 25}}}, false},
		{"zero timeout", Config{Host: "x", Port: 80, TimeoutSet: true}, false},
		{"no host", Config{Port: 80}, true},
		{"no port", Config{Host: "x"}, true},
		{"range without -z", Config{Host: "x", Ports: []PortRange{{20, 25}}}, true},
		{"negative timeout", Config{Host: "x", Port: 80, Timeout: -1, TimeoutSet: true}, true},
		{"negative retries", Config{Host: "x", Port: 80, Retries: -1}, true},
		{"exec conflict", Config{Host: "x", Port: 80, Execute: "a", Command: "b"}, true},
		{"scan + exec", Config{Host: "x", Port: 80, ZeroIO: true, Command: "cat"}, true},
		{"tunnel no host", Config{Host: "x", Port: 80, TunnelEnabled: true}, true},
		{"valid tunnel", Config{Host: "x", Port: 80, TunnelEnabled: true, TunnelHost: "gw"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestScanTimeout(t *testing.T) {
	var c Config
	if got := c.ScanTimeout(); got != DefaultScanTimeout {
		t.Errorf("unset: %v, want %v", got, DefaultScanTimeout)
	}
	c.SetTimeout(0)
	if got := c.ScanTimeout(); got != 0 {
		t.Errorf("-w 0: %v, want 0", got)
	}
	c.SetTimeout(2 * time.Second)
	if got := c.ScanTimeout(); got != 2*time.Second {
		t.Errorf("-w 2: %v", got)
	}
}
