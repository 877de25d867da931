package socket

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	sockerr "tcpsock/internal/errors"
)

// Resolver turns a textual host into an IPv4 address.
type Resolver struct {
	// NoDNS restricts resolution to dotted-quad literals.
	NoDNS bool

	// LookupIP performs the blocking name lookup.  Defaults to
	// net.DefaultResolver.LookupIP.
	LookupIP func(ctx context.Context, network, host string) ([]net.IP, error)
}

var defaultResolver = &Resolver{}

// Resolve parses host as a dotted-quad literal and, failing that, looks
// it up and returns the first IPv4 result.  Failure is always a
// *SocketError of KindResolve; 0.0.0.0 is a valid result, not a sentinel.
func (r *Resolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil && addr.Is4() {
		return addr, nil
	}
	if r.NoDNS {
		return netip.Addr{}, sockerr.NewSocket(sockerr.KindResolve, "resolve", host,
			fmt.Errorf("cannot parse %q as an IPv4 address (DNS disabled)", host))
	}

	lookup := r.LookupIP
	if lookup == nil {
		lookup = net.DefaultResolver.LookupIP
	}
	ips, err := lookup(ctx, "ip4", host)
	if err != nil {
		return netip.Addr{}, sockerr.NewSocket(sockerr.KindResolve, "resolve", host, err)
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return netip.AddrFrom4([4]byte(ip4)), nil
		}
	}
	return netip.Addr{}, sockerr.NewSocket(sockerr.KindResolve, "resolve", host, sockerr.ErrNoAddress)
}

// ResolveEndpoint resolves host and pairs it with port.
func (r *Resolver) ResolveEndpoint(ctx context.Context, host string, port uint16) (Endpoint, error) {
	addr, err := r.Resolve(ctx, host)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Addr: addr.As4(), Port: port}, nil
}

// Resolve uses the default resolver with a background context.
func Resolve(host string) (netip.Addr, error) {
	return defaultResolver.Resolve(context.Background(), host)
}

// ResolveEndpoint uses the default resolver with a background context.
func ResolveEndpoint(host string, port uint16) (Endpoint, error) {
	return defaultResolver.ResolveEndpoint(context.Background(), host, port)
}
