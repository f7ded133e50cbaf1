package probe

import (
	"context"
	"net/netip"
	"slices"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestResolve_LiteralAddresses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  netip.AddrPort
	}{
		{"127.0.0.1:8080", netip.MustParseAddrPort("127.0.0.1:8080")},
		{"[::1]:5432", netip.MustParseAddrPort("[::1]:5432")},
		{"[::ffff:10.0.0.1]:80", netip.MustParseAddrPort("10.0.0.1:80")},
		{"127.0.0.1:http", netip.MustParseAddrPort("127.0.0.1:80")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			set, err := Resolve(context.Background(), []string{tt.input}, nil, DefaultConfig(), testLogger())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(set) != 1 {
				t.Fatalf("expected 1 target, got %d", len(set))
			}

			target, ok := set[0].(TCPTarget)
			if !ok {
				t.Fatalf("expected TCPTarget, got %T", set[0])
			}
			if target.Addr != tt.want {
				t.Errorf("expected %s, got %s", tt.want, target.Addr)
			}
			if target.Input != tt.input {
				t.Errorf("expected input %q, got %q", tt.input, target.Input)
			}
		})
	}
}

func TestResolve_HostnameFanOut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy ResolvePolicy
		want   []netip.AddrPort
	}{
		{
			ResolveAll,
			[]netip.AddrPort{
				netip.MustParseAddrPort("127.0.0.1:9000"),
				netip.MustParseAddrPort("[::1]:9000"),
			},
		},
		{ResolveFirst, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			t.Parallel()

			config := DefaultConfig()
			config.HostResolver = dualStackDNS(t)
			config.Resolve = tt.policy

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			set, err := Resolve(
				ctx,
				[]string{"db.w8.test:9000", "127.0.0.1:9001"},
				nil,
				config,
				testLogger(),
			)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			addrs := []netip.AddrPort{}
			for _, target := range set {
				tcp := target.(TCPTarget)
				if tcp.Input == "db.w8.test:9000" {
					addrs = append(addrs, tcp.Addr)
				}
			}

			if set.Count(KindTCP) != len(addrs)+1 {
				t.Errorf("expected one target for the literal input, got %d", set.Count(KindTCP)-len(addrs))
			}

			if tt.policy == ResolveFirst {
				if len(addrs) != 1 {
					t.Errorf("expected 1 address under %s, got %v", tt.policy, addrs)
				}
				return
			}

			slices.SortFunc(addrs, netip.AddrPort.Compare)
			if !slices.Equal(addrs, tt.want) {
				t.Errorf("expected one target per address family %v, got %v", tt.want, addrs)
			}
		})
	}
}

func TestResolve_HTTPInputs(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"http://localhost:8080/healthz",
		"https://example.com",
		"http://[::1]/ready?full=1",
		"http://localhost:8080/healthz",
	}

	set, err := Resolve(context.Background(), nil, inputs, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(set) != len(inputs) {
		t.Fatalf("expected %d targets, got %d", len(inputs), len(set))
	}
	if set.Count(KindHTTP) != len(inputs) {
		t.Errorf("expected only HTTP targets, got %d", set.Count(KindHTTP))
	}

	for i, target := range set {
		if target.String() != inputs[i] {
			t.Errorf("expected %q, got %q", inputs[i], target.String())
		}
	}
}

func TestResolve_Mixed(t *testing.T) {
	t.Parallel()

	set, err := Resolve(
		context.Background(),
		[]string{"127.0.0.1:1", "[::1]:2"},
		[]string{"http://127.0.0.1:3/"},
		DefaultConfig(),
		testLogger(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Count(KindTCP) != 2 || set.Count(KindHTTP) != 1 {
		t.Errorf("expected 2 tcp and 1 http targets, got %d and %d", set.Count(KindTCP), set.Count(KindHTTP))
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tcp     []string
		http    []string
		wantErr error
	}{
		{"not a socket", []string{"not-a-socket"}, nil, ErrInvalidSocketAddr},
		{"missing port", []string{"127.0.0.1"}, nil, ErrInvalidSocketAddr},
		{"empty port", []string{"127.0.0.1:"}, nil, ErrInvalidSocketAddr},
		{"empty host", []string{":80"}, nil, ErrInvalidSocketAddr},
		{"unknown service", []string{"127.0.0.1:no-such-service"}, nil, ErrInvalidSocketAddr},
		{"unresolvable host", []string{"w8-test.invalid:80"}, nil, ErrUnresolvableHost},
		{"not a url", nil, []string{"not a url"}, ErrInvalidURL},
		{"relative url", nil, []string{"/healthz"}, ErrInvalidURL},
		{"unsupported scheme", nil, []string{"ftp://example.com/"}, ErrInvalidURL},
		{"missing host", nil, []string{"http:///healthz"}, ErrInvalidURL},
		{"port only", nil, []string{"http://:8080/"}, ErrInvalidURL},
		{"bad escape", nil, []string{"http://example.com/%zz"}, ErrInvalidURL},
		{
			"one bad input among good ones",
			[]string{"127.0.0.1:80"},
			[]string{"http://127.0.0.1/", "not a url"},
			ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			set, err := Resolve(context.Background(), tt.tcp, tt.http, DefaultConfig(), testLogger())
			if err == nil {
				t.Fatalf("expected error, got %d targets", len(set))
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if set != nil {
				t.Errorf("expected no targets on error, got %d", len(set))
			}
		})
	}
}
