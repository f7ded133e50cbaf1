package probe

import (
	"context"
	"log/slog"
	"net/netip"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindTCP Kind = iota
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Target is a single resolved probe target. The set of implementations is
// closed: only TCPTarget and HTTPTarget satisfy it.
type Target interface {
	Kind() Kind
	String() string
	isTarget()
}

// TCPTarget is ready once a TCP connection to Addr succeeds.
type TCPTarget struct {
	// Input is the host:port string the address was resolved from
	Input string
	Addr  netip.AddrPort
}

func (TCPTarget) Kind() Kind { return KindTCP }

func (t TCPTarget) String() string { return t.Addr.String() }

func (TCPTarget) isTarget() {}

// HTTPTarget is ready once a request to URL returns a 2xx status.
type HTTPTarget struct {
	URL *url.URL
}

func (HTTPTarget) Kind() Kind { return KindHTTP }

// String renders the URL with any password redacted, it ends up in logs.
func (t HTTPTarget) String() string { return t.URL.Redacted() }

func (HTTPTarget) isTarget() {}

// ProbeSet holds every target of one run. Each element is probed by exactly
// one task.
type ProbeSet []Target

// Count returns the number of targets of the given kind.
func (s ProbeSet) Count(kind Kind) int {
	n := 0
	for _, t := range s {
		if t.Kind() == kind {
			n++
		}
	}
	return n
}

// Outcome is reported by a probe task once its target is ready.
type Outcome struct {
	Target   Target
	Attempts int
	Elapsed  time.Duration
}

// ProbeFn retries a single target until it is ready. It only returns an
// error when ctx is done.
type ProbeFn[T Target] func(ctx context.Context, target T, config Config, logger *slog.Logger) (Outcome, error)

var (
	ErrInvalidSocketAddr = errors.New("invalid socket address")
	ErrUnresolvableHost  = errors.New("could not resolve host")
	ErrInvalidURL        = errors.New("invalid URL")

	ErrNotReady          = errors.New("probe target is not ready")
	ErrUnsupportedTarget = errors.New("unsupported probe target")
)
