package probe

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

type probers struct {
	tcp  ProbeFn[TCPTarget]
	http ProbeFn[HTTPTarget]
}

var defaultProbers = probers{
	tcp:  ProbeTCP,
	http: ProbeHTTP,
}

type result struct {
	outcome Outcome
	err     error
}

// Run probes every target of set concurrently and returns once all of them
// are ready. If ctx is done first, Run still waits for every task to stop
// and returns an error naming the targets that never became ready.
func Run(ctx context.Context, set ProbeSet, config Config, logger *slog.Logger) ([]Outcome, error) {
	return run(ctx, set, config, logger, defaultProbers)
}

func run(
	ctx context.Context,
	set ProbeSet,
	config Config,
	logger *slog.Logger,
	p probers,
) ([]Outcome, error) {
	tasks := make([]func() (Outcome, error), 0, len(set))
	for _, target := range set {
		switch t := target.(type) {
		case TCPTarget:
			tasks = append(tasks, func() (Outcome, error) {
				return p.tcp(ctx, t, config, logger)
			})
		case HTTPTarget:
			tasks = append(tasks, func() (Outcome, error) {
				return p.http(ctx, t, config, logger)
			})
		default:
			return nil, errors.Wrapf(ErrUnsupportedTarget, "%T", target)
		}
	}

	logger.Info(
		"Waiting for probe targets",
		"tcp",
		set.Count(KindTCP),
		"http",
		set.Count(KindHTTP),
	)

	channel := make(chan result, len(tasks))
	for i, task := range tasks {
		go func() {
			outcome, err := task()
			if outcome.Target == nil {
				outcome.Target = set[i]
			}
			channel <- result{outcome: outcome, err: err}
		}()
	}

	outcomes := make([]Outcome, 0, len(tasks))
	pending := []string{}
	var runErr error

	for range tasks {
		r := <-channel

		if r.err != nil {
			pending = append(pending, r.outcome.Target.String())
			if runErr == nil {
				runErr = r.err
			}

			logger.Warn(
				"Stopped waiting for probe target",
				"target",
				r.outcome.Target.String(),
				"attempts",
				r.outcome.Attempts,
				"error",
				r.err.Error(),
			)
			continue
		}

		outcomes = append(outcomes, r.outcome)

		logger.Info(
			"Probe target is ready",
			"target",
			r.outcome.Target.String(),
			"attempts",
			r.outcome.Attempts,
			"elapsed",
			r.outcome.Elapsed,
			"remaining",
			len(tasks)-len(outcomes)-len(pending),
		)
	}

	if runErr != nil {
		return outcomes, errors.Wrapf(
			runErr,
			"%d of %d targets not ready: %s",
			len(pending),
			len(set),
			strings.Join(pending, ", "),
		)
	}

	return outcomes, nil
}
