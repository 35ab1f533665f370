package main

import (
	"context"

	"github.com/kbukum/llmflow/bootstrap"
	"github.com/kbukum/llmflow/config"
	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/observability"
	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/provider"
	"github.com/kbukum/llmflow/report"
	"github.com/kbukum/llmflow/source"
	"github.com/kbukum/llmflow/version"
)

// session is the runtime of one pipeline command.
type session struct {
	cli     *cli
	app     *bootstrap.App[*AppConfig]
	metrics *observability.Metrics
}

func (c *cli) loadConfig() (*AppConfig, error) {
	var opts []config.LoaderOption
	if c.configFile != "" {
		opts = append(opts, config.WithConfigFile(c.configFile))
	}
	if c.envFile != "" {
		opts = append(opts, config.WithEnvFile(c.envFile))
	}

	var cfg AppConfig
	if err := config.LoadConfig(appName, &cfg, opts...); err != nil {
		return nil, err
	}
	if c.dialect != "" {
		cfg.LLM.Dialect = c.dialect
	}
	if c.model != "" {
		cfg.LLM.Model = c.model
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.plain {
		cfg.Report.Plain = true
		cfg.Logging.NoColor = true
	}
	if cfg.Version == "" {
		cfg.Version = version.Version
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// start loads the configuration, installs the logger, and sets up
// telemetry. Its stop hooks run when the task returns.
func (c *cli) start(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(c.stderr, &cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	logger.RegisterDefaults()

	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(log))
	if err != nil {
		return nil, err
	}

	metrics, shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return nil, errors.Configuration("cannot set up telemetry").WithCause(err)
	}
	app.OnStop(bootstrap.Hook(shutdown))

	return &session{cli: c, app: app, metrics: metrics}, nil
}

// client builds the instrumented LLM client and closes it on stop.
func (s *session) client() (llm.Client, error) {
	client, err := s.cli.newClient(s.app.Cfg.LLM)
	if err != nil {
		return nil, err
	}
	s.app.OnStop(func(ctx context.Context) error { return provider.Close(ctx, client) })
	return llm.Instrument(client, logger.Get("llm"), s.metrics, s.app.Name), nil
}

// loader builds the input loader reading stdin from the CLI's stdin.
func (s *session) loader() (*source.Loader, error) {
	src, err := source.New(s.app.Cfg.Fetch,
		source.WithStdin(s.cli.stdin),
		source.WithLogger(logger.Get("source")),
	)
	if err != nil {
		return nil, err
	}
	s.app.OnStop(src.Close)
	return src, nil
}

// run executes stages with a report printer observing the run. A failed
// run has already been reported when run returns.
func (s *session) run(ctx context.Context, name string, stages []pipeline.Stage, input pipeline.Input, cfg report.Config, opts ...report.Option) error {
	opts = append(opts, report.WithErrorOutput(s.cli.stderr))
	printer, err := report.New(s.cli.stdout, cfg, opts...)
	if err != nil {
		return err
	}

	log := logger.Get("pipeline")
	runner := pipeline.NewRunner(
		pipeline.WithName(name),
		pipeline.WithObserver(printer),
		pipeline.WithLogger(log),
		pipeline.WithRunMetrics(s.metrics),
	)
	run := runner.Run(ctx, pipeline.Instrument(stages, log, s.metrics), input)
	if !run.Succeeded() {
		return &reportedError{code: errors.ExitCode(run.Err)}
	}
	return nil
}
