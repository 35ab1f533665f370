package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/workflows"
)

const (
	groupWorkflows = "workflows"
	groupPipelines = "pipelines"
)

func (c *cli) workflowCommand(w *workflows.Workflow) *cobra.Command {
	return &cobra.Command{
		Use:     w.Name + " " + w.Usage,
		Short:   w.Description,
		GroupID: groupWorkflows,
		Args: func(_ *cobra.Command, args []string) error {
			return w.CheckArgs(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWorkflow(cmd.Context(), w, args)
		},
	}
}

func (c *cli) runWorkflow(ctx context.Context, w *workflows.Workflow, args []string) error {
	s, err := c.start(ctx)
	if err != nil {
		return err
	}
	return s.app.RunTask(ctx, func(ctx context.Context) error {
		client, err := s.client()
		if err != nil {
			return err
		}
		src, err := s.loader()
		if err != nil {
			return err
		}

		input, err := w.Input(ctx, src, args)
		if err != nil {
			if w.EmptyMessage != "" && errors.CodeOf(err) == errors.ErrCodeEmptyContent {
				fmt.Fprintln(c.stdout, w.EmptyMessage)
				return nil
			}
			return err
		}

		cfg := s.app.Cfg.Report
		if cfg.Title == "" {
			cfg.Title = w.Title
		}
		if cfg.Preview == 0 {
			cfg.Preview = w.Preview
		}
		stages := w.Stages(workflows.Options{Client: client})
		return s.run(ctx, w.Name, stages, input, cfg, w.ReportOptions()...)
	})
}
