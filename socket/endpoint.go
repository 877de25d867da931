package socket

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

// EndpointSize is the length of an Endpoint's wire form.
const EndpointSize = 6

// Endpoint is an IPv4 address plus TCP port.  Port is held in host
// order; the wire form produced by MarshalBinary is network order.
type Endpoint struct {
	Addr [4]byte
	Port uint16
}

// EndpointFrom builds an Endpoint from addr, which must be IPv4 (an
// IPv4-mapped IPv6 address is unmapped).
func EndpointFrom(addr netip.Addr, port uint16) (Endpoint, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return Endpoint{}, fmt.Errorf("endpoint: %s is not an IPv4 address", addr)
	}
	return Endpoint{Addr: addr.As4(), Port: port}, nil
}

// IP returns the address as a netip.Addr.
func (e Endpoint) IP() netip.Addr { return netip.AddrFrom4(e.Addr) }

// String returns "a.b.c.d:port".
func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP().String(), strconv.Itoa(int(e.Port)))
}

// TCPAddr converts e for use with the net package.
func (e Endpoint) TCPAddr() *net.TCPAddr {
	return net.TCPAddrFromAddrPort(netip.AddrPortFrom(e.IP(), e.Port))
}

// MarshalBinary encodes e as 4 address bytes followed by 2 port bytes,
// both in network byte order.
func (e Endpoint) MarshalBinary() ([]byte, error) {
	b := make([]byte, EndpointSize)
	copy(b, e.Addr[:])
	binary.BigEndian.PutUint16(b[4:], e.Port)
	return b, nil
}

// UnmarshalBinary decodes the form written by MarshalBinary.
func (e *Endpoint) UnmarshalBinary(b []byte) error {
	if len(b) != EndpointSize {
		return fmt.Errorf("endpoint: wire form is %d bytes, got %d", EndpointSize, len(b))
	}
	copy(e.Addr[:], b[:4])
	e.Port = binary.BigEndian.Uint16(b[4:])
	return nil
}

func (e Endpoint) sockaddr() *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{Port: int(e.Port), Addr: e.Addr}
}

func endpointFromSockaddr(sa unix.Sockaddr) Endpoint {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return Endpoint{Addr: in4.Addr, Port: uint16(in4.Port)}
	}
	return Endpoint{}
}
