// Package bootstrap runs a one-shot llmflow command with a uniform
// lifecycle: config defaults and validation, logger initialization, a
// signal-cancelled task, and stop hooks.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(func(ctx context.Context) error { return client.Close(ctx) })
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return runPipeline(ctx)
//	})
package bootstrap
