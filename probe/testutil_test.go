package probe

import (
	"log/slog"
	"net"
	"net/netip"
	"testing"
	"time"

	"golang.org/x/net/dns/dnsmessage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testConfig retries quickly so tests don't spend their time sleeping.
func testConfig() Config {
	config := DefaultConfig()
	config.AttemptTimeout = time.Second
	config.Retry.Interval = 10 * time.Millisecond
	config.Retry.MaxInterval = 50 * time.Millisecond
	return config
}

// unusedAddr returns a loopback address nothing is listening on.
func unusedAddr(t *testing.T) netip.AddrPort {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := netip.MustParseAddrPort(l.Addr().String())
	if err := l.Close(); err != nil {
		t.Fatalf("failed to release port: %v", err)
	}
	return addr
}

// listenAfter starts a listener on addr once delay has passed and accepts
// connections until the test ends.
func listenAfter(t *testing.T, addr netip.AddrPort, delay time.Duration) {
	t.Helper()

	done := make(chan struct{})
	var l net.Listener

	go func() {
		defer close(done)

		time.Sleep(delay)

		var err error
		l, err = net.Listen("tcp", addr.String())
		if err != nil {
			t.Errorf("failed to listen on %s: %v", addr, err)
			return
		}

		go func() {
			for {
				conn, err := l.Accept()
				if err != nil {
					return
				}
				conn.Close()
			}
		}()
	}()

	t.Cleanup(func() {
		<-done
		if l != nil {
			l.Close()
		}
	})
}

// dualStackDNS answers every A query with 127.0.0.1 and every AAAA query
// with ::1, and returns the ip:port it listens on.
func dualStackDNS(t *testing.T) string {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen for DNS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 1500)
		for {
			n, peer, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}

			reply, err := dualStackReply(buf[:n])
			if err != nil {
				continue
			}
			_, _ = conn.WriteTo(reply, peer)
		}
	}()

	return conn.LocalAddr().String()
}

func dualStackReply(query []byte) ([]byte, error) {
	var parser dnsmessage.Parser
	header, err := parser.Start(query)
	if err != nil {
		return nil, err
	}
	question, err := parser.Question()
	if err != nil {
		return nil, err
	}

	builder := dnsmessage.NewBuilder(nil, dnsmessage.Header{
		ID:                 header.ID,
		Response:           true,
		Authoritative:      true,
		RecursionDesired:   header.RecursionDesired,
		RecursionAvailable: true,
	})
	if err := builder.StartQuestions(); err != nil {
		return nil, err
	}
	if err := builder.Question(question); err != nil {
		return nil, err
	}
	if err := builder.StartAnswers(); err != nil {
		return nil, err
	}

	resource := dnsmessage.ResourceHeader{
		Name:  question.Name,
		Type:  question.Type,
		Class: dnsmessage.ClassINET,
		TTL:   60,
	}
	switch question.Type {
	case dnsmessage.TypeA:
		err = builder.AResource(resource, dnsmessage.AResource{A: [4]byte{127, 0, 0, 1}})
	case dnsmessage.TypeAAAA:
		err = builder.AAAAResource(resource, dnsmessage.AAAAResource{AAAA: netip.IPv6Loopback().As16()})
	}
	if err != nil {
		return nil, err
	}

	return builder.Finish()
}
