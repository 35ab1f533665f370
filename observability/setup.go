package observability

import (
	"context"
	stderrors "errors"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the tracer and meter providers described by cfg and
// returns the instruments to record against. When cfg.Enabled is false it
// installs nothing; the returned Metrics then record to the global no-op
// meter.
func Setup(ctx context.Context, cfg Config, serviceName, version, environment string) (*Metrics, ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		metrics, err := NewMetrics(Meter(serviceName))
		return metrics, noop, err
	}
	cfg.ApplyDefaults()

	tp, err := InitTracer(ctx, cfg.TracerConfig(serviceName, version, environment))
	if err != nil {
		return nil, noop, err
	}
	mp, err := InitMeter(ctx, cfg.MeterConfig(serviceName, version, environment))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, err
	}

	metrics, err := NewMetrics(Meter(serviceName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}

	shutdown := func(ctx context.Context) error {
		return stderrors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return metrics, shutdown, nil
}
