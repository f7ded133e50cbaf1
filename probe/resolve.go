package probe

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"net/url"

	"github.com/pkg/errors"
)

// Resolve turns the raw TCP and HTTP inputs into a ProbeSet. Any input that
// can't be parsed or resolved fails the whole call, nothing is probed here.
func Resolve(
	ctx context.Context,
	tcpInputs []string,
	httpInputs []string,
	config Config,
	logger *slog.Logger,
) (ProbeSet, error) {
	resolver := newResolver(config)

	set := ProbeSet{}

	for _, input := range tcpInputs {
		addrs, err := resolveSocketAddr(ctx, resolver, input)
		if err != nil {
			return nil, err
		}

		if config.Resolve == ResolveFirst {
			addrs = addrs[:1]
		}

		if len(addrs) > 1 {
			logger.Debug(
				"TCP target resolved to multiple addresses",
				"target",
				input,
				"addresses",
				len(addrs),
			)
		}

		for _, addr := range addrs {
			set = append(set, TCPTarget{Input: input, Addr: addr})
		}
	}

	for _, input := range httpInputs {
		targetURL, err := parseHTTPURL(input)
		if err != nil {
			return nil, err
		}
		set = append(set, HTTPTarget{URL: targetURL})
	}

	return set, nil
}

func resolveSocketAddr(ctx context.Context, resolver *net.Resolver, input string) ([]netip.AddrPort, error) {
	host, portName, err := net.SplitHostPort(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSocketAddr, "%s: %s", input, err.Error())
	}
	if host == "" || portName == "" {
		return nil, errors.Wrapf(ErrInvalidSocketAddr, "%s: missing host or port", input)
	}

	port, err := resolver.LookupPort(ctx, "tcp", portName)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSocketAddr, "%s: %s", input, err.Error())
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.AddrPort{netip.AddrPortFrom(addr.Unmap(), uint16(port))}, nil
	}

	ips, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, errors.Wrapf(ErrUnresolvableHost, "%s: %s", input, err.Error())
	}
	if len(ips) == 0 {
		return nil, errors.Wrapf(ErrUnresolvableHost, "%s: no addresses found", input)
	}

	addrs := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, netip.AddrPortFrom(ip.Unmap(), uint16(port)))
	}
	return addrs, nil
}

func parseHTTPURL(input string) (*url.URL, error) {
	targetURL, err := url.Parse(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidURL, "%s: %s", input, err.Error())
	}

	if targetURL.Scheme != "http" && targetURL.Scheme != "https" {
		return nil, errors.Wrapf(ErrInvalidURL, "%s: scheme must be http or https", input)
	}
	if targetURL.Host == "" || targetURL.Hostname() == "" {
		return nil, errors.Wrapf(ErrInvalidURL, "%s: missing host", input)
	}

	return targetURL, nil
}
