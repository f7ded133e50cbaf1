package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adaricorp/w8/probe"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/pkg/errors"
	"github.com/prometheus/common/version"
)

const (
	binName = "w8"
)

var (
	logger    *slog.Logger
	slogLevel *slog.LevelVar = new(slog.LevelVar)
)

// Print program usage
func printUsage(fs ff.Flags, code int) {
	fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
	os.Exit(code)
}

// Print program version
func printVersion() {
	fmt.Printf("%s v%s built on %s\n", binName, version.Version, version.BuildDate)
	os.Exit(0)
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		slogLevel.Set(slog.LevelDebug)
	case "info":
		slogLevel.Set(slog.LevelInfo)
	case "warn":
		slogLevel.Set(slog.LevelWarn)
	case "error":
		slogLevel.Set(slog.LevelError)
	}
}

func main() {
	logger = slog.New(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slogLevel,
		}),
	)
	slog.SetDefault(logger)

	fs, opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, ff.ErrHelp) {
			printUsage(fs, 0)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		printUsage(fs, 1)
	}

	if *opts.displayVersion {
		printVersion()
	}

	var file *FileConfig
	if *opts.configFilePath != "" {
		file, err = loadFileConfig(*opts.configFilePath)
		if err != nil {
			logger.Error(
				"Couldn't load configuration file",
				"config_file",
				*opts.configFilePath,
				"error",
				err.Error(),
			)
			os.Exit(1)
		}
	}

	s, err := buildSettings(fs, opts, file)
	if err != nil {
		logger.Error("Invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	setLogLevel(s.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exitSignal := make(chan os.Signal, 1)
	signal.Notify(exitSignal, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-exitSignal
		logger.Warn("Received signal, giving up", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, s, logger); err != nil {
		logger.Error("Probe targets are not ready", "error", err.Error())
		os.Exit(1)
	}
}

// run resolves every input and waits until all resulting targets are ready.
func run(ctx context.Context, s settings, logger *slog.Logger) error {
	logger.Debug(
		"Parsed options",
		"tcp",
		s.TCP,
		"http",
		s.HTTP,
		"timeout",
		s.Timeout,
		"attempt_timeout",
		s.Probe.AttemptTimeout,
		"retry_policy",
		s.Probe.Retry.Policy,
		"retry_interval",
		s.Probe.Retry.Interval,
		"resolve",
		s.Probe.Resolve,
		"redirects",
		s.Probe.HTTP.Redirects,
	)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	set, err := probe.Resolve(ctx, s.TCP, s.HTTP, s.Probe, logger)
	if err != nil {
		return errors.Wrap(err, "Invalid probe target")
	}

	start := time.Now()

	outcomes, err := probe.Run(ctx, set, s.Probe, logger)
	if err != nil {
		return err
	}

	logger.Info(
		"All probe targets are ready",
		"targets",
		len(outcomes),
		"elapsed",
		time.Since(start),
	)

	return nil
}
