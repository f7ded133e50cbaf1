package main

import (
	"os"
	"strings"
	"time"

	"github.com/adaricorp/w8/probe"
	"github.com/peterbourgon/ff/v4"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

type options struct {
	tcp                *[]string
	http               *[]string
	displayVersion     *bool
	verbose            *bool
	logLevel           *string
	configFilePath     *string
	timeout            *time.Duration
	attemptTimeout     *time.Duration
	retryPolicy        *string
	retryInterval      *time.Duration
	maxRetryInterval   *time.Duration
	resolve            *string
	redirects          *string
	httpMethod         *string
	insecureSkipVerify *bool
	hostResolver       *string
	bindInterface      *string
}

// settings is the merged result of defaults, config file and flags.
type settings struct {
	TCP      []string
	HTTP     []string
	LogLevel string
	Timeout  time.Duration
	Probe    probe.Config
}

func newFlagSet() (*ff.FlagSet, *options) {
	fs := ff.NewFlagSet(binName)
	opts := &options{}

	opts.tcp = fs.StringListLong("tcp", "TCP socket (host:port) that must accept connections")
	opts.http = fs.StringListLong("http", "HTTP endpoint that must return 2xx")
	opts.displayVersion = fs.BoolLong("version", "Print version")
	opts.verbose = fs.BoolLong("verbose", "Enable verbose logging, same as --log-level debug")
	opts.logLevel = fs.StringEnumLong(
		"log-level",
		"Log level: debug, info, warn, error",
		"info",
		"debug",
		"error",
		"warn",
	)
	opts.configFilePath = fs.StringLong("config-file", "", "Path to optional YAML configuration file")
	opts.timeout = fs.DurationLong("timeout", 0, "Give up after this long, 0 waits forever")
	opts.attemptTimeout = fs.DurationLong(
		"attempt-timeout",
		probe.DefaultAttemptTimeout,
		"Timeout for a single connection attempt or request",
	)
	opts.retryPolicy = fs.StringEnumLong(
		"retry-policy",
		"Delay between attempts: constant, immediate, exponential",
		string(probe.RetryConstant),
		string(probe.RetryImmediate),
		string(probe.RetryExponential),
	)
	opts.retryInterval = fs.DurationLong(
		"retry-interval",
		probe.DefaultRetryInterval,
		"Constant retry interval, or initial interval for exponential retries",
	)
	opts.maxRetryInterval = fs.DurationLong(
		"max-retry-interval",
		probe.DefaultMaxRetryInterval,
		"Upper bound for exponential retry interval",
	)
	opts.resolve = fs.StringEnumLong(
		"resolve",
		"Which resolved addresses of a TCP host to probe: all, first",
		string(probe.ResolveAll),
		string(probe.ResolveFirst),
	)
	opts.redirects = fs.StringEnumLong(
		"redirects",
		"HTTP redirect handling: follow, none",
		string(probe.RedirectFollow),
		string(probe.RedirectNone),
	)
	opts.httpMethod = fs.StringLong("http-method", "GET", "HTTP request method")
	opts.insecureSkipVerify = fs.BoolLong("insecure-skip-verify", "Skip TLS certificate verification")
	opts.hostResolver = fs.StringLong("host-resolver", "", "DNS server (ip:port) used to resolve targets")
	opts.bindInterface = fs.StringLong("bind-interface", "", "Network interface to bind probe sockets to")

	return fs, opts
}

func parseFlags(args []string) (*ff.FlagSet, *options, error) {
	fs, opts := newFlagSet()

	err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix(strings.ToUpper(binName)),
		ff.WithEnvVarSplit(" "),
	)
	if err != nil {
		return fs, opts, err
	}

	return fs, opts, nil
}

func isSet(fs *ff.FlagSet, name string) bool {
	f, ok := fs.GetFlag(name)
	return ok && f.IsSet()
}

func loadFileConfig(path string) (*FileConfig, error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't open configuration file")
	}

	config := FileConfig{}
	if err := yaml.Unmarshal(configFile, &config); err != nil {
		return nil, errors.Wrapf(err, "Couldn't parse configuration file")
	}

	return &config, nil
}

func buildSettings(fs *ff.FlagSet, opts *options, file *FileConfig) (settings, error) {
	s := settings{
		LogLevel: *opts.logLevel,
		Probe:    probe.DefaultConfig(),
	}

	if file != nil {
		if err := applyFileConfig(&s, file); err != nil {
			return s, err
		}
	}

	s.TCP = append(s.TCP, *opts.tcp...)
	s.HTTP = append(s.HTTP, *opts.http...)

	if *opts.verbose && !isSet(fs, "log-level") {
		s.LogLevel = "debug"
	}
	if isSet(fs, "timeout") {
		s.Timeout = *opts.timeout
	}
	if isSet(fs, "attempt-timeout") {
		s.Probe.AttemptTimeout = *opts.attemptTimeout
	}
	if isSet(fs, "retry-policy") {
		s.Probe.Retry.Policy = probe.RetryPolicy(*opts.retryPolicy)
	}
	if isSet(fs, "retry-interval") {
		s.Probe.Retry.Interval = *opts.retryInterval
	}
	if isSet(fs, "max-retry-interval") {
		s.Probe.Retry.MaxInterval = *opts.maxRetryInterval
	}
	if isSet(fs, "resolve") {
		s.Probe.Resolve = probe.ResolvePolicy(*opts.resolve)
	}
	if isSet(fs, "redirects") {
		s.Probe.HTTP.Redirects = probe.RedirectPolicy(*opts.redirects)
	}
	if isSet(fs, "http-method") {
		s.Probe.HTTP.Method = strings.ToUpper(*opts.httpMethod)
	}
	if isSet(fs, "insecure-skip-verify") {
		s.Probe.HTTP.InsecureSkipVerify = *opts.insecureSkipVerify
	}
	if isSet(fs, "host-resolver") {
		s.Probe.HostResolver = *opts.hostResolver
	}
	if isSet(fs, "bind-interface") {
		s.Probe.BindInterface = *opts.bindInterface
	}

	if s.Timeout < 0 {
		return s, errors.Errorf("Timeout must not be negative: %s", s.Timeout)
	}

	if err := s.Probe.Validate(); err != nil {
		return s, err
	}

	return s, nil
}

func applyFileConfig(s *settings, file *FileConfig) error {
	s.TCP = append(s.TCP, file.TCP...)
	s.HTTP = append(s.HTTP, file.HTTP...)

	if file.Resolve != "" {
		policy, err := probe.ParseResolvePolicy(file.Resolve)
		if err != nil {
			return err
		}
		s.Probe.Resolve = policy
	}

	if file.HostResolver != nil {
		s.Probe.HostResolver = file.HostResolver.String()
	}

	if file.BindInterface != "" {
		s.Probe.BindInterface = file.BindInterface
	}

	pc := file.ProbeConfiguration

	if pc.Timeout != 0 {
		s.Timeout = pc.Timeout
	}

	if pc.AttemptTimeout != 0 {
		s.Probe.AttemptTimeout = pc.AttemptTimeout
	}

	if pc.RetryPolicy != "" {
		policy, err := probe.ParseRetryPolicy(pc.RetryPolicy)
		if err != nil {
			return err
		}
		s.Probe.Retry.Policy = policy
	}

	if pc.RetryInterval != 0 {
		s.Probe.Retry.Interval = pc.RetryInterval
	}

	if pc.MaxRetryInterval != 0 {
		s.Probe.Retry.MaxInterval = pc.MaxRetryInterval
	}

	hc := file.HTTPProbe

	if hc.Method != "" {
		s.Probe.HTTP.Method = strings.ToUpper(hc.Method)
	}

	if hc.Redirects != "" {
		policy, err := probe.ParseRedirectPolicy(hc.Redirects)
		if err != nil {
			return err
		}
		s.Probe.HTTP.Redirects = policy
	}

	if hc.InsecureSkipVerify {
		s.Probe.HTTP.InsecureSkipVerify = true
	}

	return nil
}
