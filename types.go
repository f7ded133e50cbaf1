package main

import (
	"fmt"
	"net/netip"
	"time"
)

type FileConfig struct {
	TCP                []string           `yaml:"tcp"`
	HTTP               []string           `yaml:"http"`
	Resolve            string             `yaml:"resolve"`
	HostResolver       *AddrPort          `yaml:"host_resolver"`
	BindInterface      string             `yaml:"bind_interface"`
	ProbeConfiguration ProbeConfiguration `yaml:"probe_config"`
	HTTPProbe          HTTPProbe          `yaml:"http_probe"`
}

type ProbeConfiguration struct {
	Timeout          time.Duration `yaml:"timeout"`
	AttemptTimeout   time.Duration `yaml:"attempt_timeout"`
	RetryPolicy      string        `yaml:"retry_policy"`
	RetryInterval    time.Duration `yaml:"retry_interval"`
	MaxRetryInterval time.Duration `yaml:"max_retry_interval"`
}

type HTTPProbe struct {
	Method             string `yaml:"method"`
	Redirects          string `yaml:"redirects"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type AddrPort struct {
	netip.AddrPort
}

func (a *AddrPort) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	addrPort, err := netip.ParseAddrPort(s)
	if err != nil {
		return fmt.Errorf("Could not parse address port: %s", s)
	}
	*a = AddrPort{addrPort}
	return nil
}
