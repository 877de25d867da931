package socket

import (
	"bytes"
	"net/netip"
	"testing"

	"golang.org/x/sys/unix"
)

func TestEndpointFrom(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{"10.0.0.1", "10.0.0.1:22", false},
		{"::ffff:10.0.0.1", "10.0.0.1:22", false},
		{"0.0.0.0", "0.0.0.0:22", false},
		{"::1", "", true},
		{"2001:db8::1", "", true},
	}
	for _, tt := range tests {
		ep, err := EndpointFrom(netip.MustParseAddr(tt.addr), 22)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.addr, err)
			continue
		}
		if ep.String() != tt.want {
			t.Errorf("%s: got %s, want %s", tt.addr, ep, tt.want)
		}
	}
}

func TestEndpoint_WireOrder(t *testing.T) {
	ep := Endpoint{Addr: [4]byte{192, 168, 1, 2}, Port: 0x1F90} // 8080
	b, err := ep.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{192, 168, 1, 2, 0x1F, 0x90}
	if !bytes.Equal(b, want) {
		t.Fatalf("wire = % x, want % x", b, want)
	}

	var back Endpoint
	if err := back.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	if back != ep {
		t.Errorf("decoded %v, want %v", back, ep)
	}
	if err := back.UnmarshalBinary(b[:5]); err == nil {
		t.Error("expected error for short wire form")
	}
}

func TestEndpoint_Conversions(t *testing.T) {
	ep := Endpoint{Addr: [4]byte{127, 0, 0, 1}, Port: 9000}

	if got := ep.IP(); got != netip.MustParseAddr("127.0.0.1") {
		t.Errorf("IP = %v", got)
	}
	ta := ep.TCPAddr()
	if ta.Port != 9000 || !ta.IP.Equal([]byte{127, 0, 0, 1}) {
		t.Errorf("TCPAddr = %v", ta)
	}

	sa := ep.sockaddr()
	if sa.Port != 9000 || sa.Addr != ep.Addr {
		t.Errorf("sockaddr = %+v", sa)
	}
	if back := endpointFromSockaddr(sa); back != ep {
		t.Errorf("round trip through sockaddr = %v", back)
	}
	if back := endpointFromSockaddr(&unix.SockaddrInet6{}); back != (Endpoint{}) {
		t.Errorf("IPv6 sockaddr = %v, want zero", back)
	}
}
