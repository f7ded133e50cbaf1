package probe

import (
	"time"

	"github.com/pkg/errors"
)

type ResolvePolicy string

const (
	// ResolveAll probes every address a TCP host resolves to, so a dual
	// stack hostname becomes one task per address family.
	ResolveAll ResolvePolicy = "all"
	// ResolveFirst probes only the first resolved address.
	ResolveFirst ResolvePolicy = "first"
)

type RetryPolicy string

const (
	RetryImmediate   RetryPolicy = "immediate"
	RetryConstant    RetryPolicy = "constant"
	RetryExponential RetryPolicy = "exponential"
)

type RedirectPolicy string

const (
	RedirectFollow RedirectPolicy = "follow"
	RedirectNone   RedirectPolicy = "none"
)

const (
	DefaultAttemptTimeout   = 5 * time.Second
	DefaultRetryInterval    = 100 * time.Millisecond
	DefaultMaxRetryInterval = 5 * time.Second
)

type Config struct {
	BindInterface  string
	HostResolver   string
	Resolve        ResolvePolicy
	AttemptTimeout time.Duration
	Retry          RetryConfig
	HTTP           HTTPProbe
}

type RetryConfig struct {
	Policy      RetryPolicy
	Interval    time.Duration
	MaxInterval time.Duration
}

type HTTPProbe struct {
	Method             string
	Redirects          RedirectPolicy
	InsecureSkipVerify bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Resolve:        ResolveAll,
		AttemptTimeout: DefaultAttemptTimeout,
		Retry: RetryConfig{
			Policy:      RetryConstant,
			Interval:    DefaultRetryInterval,
			MaxInterval: DefaultMaxRetryInterval,
		},
		HTTP: HTTPProbe{
			Method:    "GET",
			Redirects: RedirectFollow,
		},
	}
}

func ParseResolvePolicy(s string) (ResolvePolicy, error) {
	switch p := ResolvePolicy(s); p {
	case ResolveAll, ResolveFirst:
		return p, nil
	}
	return "", errors.Errorf("Unknown resolve policy: %q", s)
}

func ParseRetryPolicy(s string) (RetryPolicy, error) {
	switch p := RetryPolicy(s); p {
	case RetryImmediate, RetryConstant, RetryExponential:
		return p, nil
	}
	return "", errors.Errorf("Unknown retry policy: %q", s)
}

func ParseRedirectPolicy(s string) (RedirectPolicy, error) {
	switch p := RedirectPolicy(s); p {
	case RedirectFollow, RedirectNone:
		return p, nil
	}
	return "", errors.Errorf("Unknown redirect policy: %q", s)
}

// Validate checks that every policy is known and every duration is usable.
func (c Config) Validate() error {
	if _, err := ParseResolvePolicy(string(c.Resolve)); err != nil {
		return err
	}
	if _, err := ParseRetryPolicy(string(c.Retry.Policy)); err != nil {
		return err
	}
	if _, err := ParseRedirectPolicy(string(c.HTTP.Redirects)); err != nil {
		return err
	}
	if c.AttemptTimeout < 0 {
		return errors.Errorf("Attempt timeout must not be negative: %s", c.AttemptTimeout)
	}
	if c.Retry.Policy != RetryImmediate && c.Retry.Interval <= 0 {
		return errors.Errorf("Retry interval must be positive for %s policy", c.Retry.Policy)
	}
	if c.Retry.Policy == RetryExponential && c.Retry.MaxInterval < c.Retry.Interval {
		return errors.Errorf(
			"Max retry interval %s is shorter than retry interval %s",
			c.Retry.MaxInterval,
			c.Retry.Interval,
		)
	}
	return nil
}
