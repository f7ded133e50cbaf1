package probe

import (
	"context"
	"net"
	"syscall"
)

func bindToDevice(iface string) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		if iface == "" {
			return nil
		}

		var errSock error
		err := c.Control(func(fd uintptr) {
			errSock = syscall.SetsockoptString(
				int(fd),
				syscall.SOL_SOCKET,
				syscall.SO_BINDTODEVICE,
				iface,
			)
		})
		if err != nil {
			return err
		}
		return errSock
	}
}

// newDialer returns the dialer used for every probe attempt. The attempt
// timeout is applied through the context, not the dialer.
func newDialer(config Config) *net.Dialer {
	return &net.Dialer{
		Control: bindToDevice(config.BindInterface),
	}
}

func newResolver(config Config) *net.Resolver {
	if config.HostResolver == "" {
		return net.DefaultResolver
	}

	resolverDialer := newDialer(config)
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			return resolverDialer.DialContext(ctx, "udp", config.HostResolver)
		},
	}
}

// attemptContext bounds a single attempt by the configured attempt timeout.
func attemptContext(ctx context.Context, config Config) (context.Context, context.CancelFunc) {
	if config.AttemptTimeout > 0 {
		return context.WithTimeout(ctx, config.AttemptTimeout)
	}
	return context.WithCancel(ctx)
}
