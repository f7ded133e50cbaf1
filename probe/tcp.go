package probe

import (
	"context"
	"log/slog"
)

// ProbeTCP dials target until a connection is established. The connection
// is closed straight away, no data is exchanged.
func ProbeTCP(
	ctx context.Context,
	target TCPTarget,
	config Config,
	logger *slog.Logger,
) (Outcome, error) {
	dialer := newDialer(config)
	address := target.Addr.String()

	return retryUntilReady(ctx, target, config, logger, func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return err
		}
		conn.Close()
		return nil
	})
}
