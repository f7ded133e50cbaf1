package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/common/version"
)

var (
	userAgent = fmt.Sprintf("w8/%s", version.Version)
)

func newHTTPClient(config Config) *http.Client {
	dialer := newDialer(config)

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DialContext:       dialer.DialContext,
		DisableKeepAlives: true,
	}

	if config.HTTP.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := &http.Client{
		Transport: transport,
	}

	if config.HTTP.Redirects == RedirectNone {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			// Judge readiness on the first response
			return http.ErrUseLastResponse
		}
	}

	return client
}

// ProbeHTTP requests target until it answers with a 2xx status. Transport
// errors and any other status are treated as not ready yet.
func ProbeHTTP(
	ctx context.Context,
	target HTTPTarget,
	config Config,
	logger *slog.Logger,
) (Outcome, error) {
	client := newHTTPClient(config)
	defer client.CloseIdleConnections()

	method := config.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	return retryUntilReady(ctx, target, config, logger, func(ctx context.Context) error {
		request, err := http.NewRequestWithContext(ctx, method, target.URL.String(), nil)
		if err != nil {
			return errors.Wrapf(err, "Error creating request")
		}

		request.Header.Set("User-Agent", userAgent)

		response, err := client.Do(request)
		if err != nil {
			return err
		}
		// Readiness is decided by the status alone, the body is never read
		response.Body.Close()

		if response.StatusCode < 200 || response.StatusCode > 299 {
			return errors.Wrapf(ErrNotReady, "status %d", response.StatusCode)
		}

		return nil
	})
}
