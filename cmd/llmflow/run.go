package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/llmflow/pipeline"
)

type runOptions struct {
	file   string
	params map[string]string
}

func (c *cli) runCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run -f <pipeline.yaml> [input]",
		Short: "Run a pipeline defined in YAML",
		Long: `Run a pipeline defined in YAML. The optional input is a file path, "-"
for stdin, or an http(s) URL. Parameters the definition declares must be
passed with --param.`,
		Example: `  llmflow run -f release-notes.yaml CHANGELOG.md --param product=Acme
  git diff | llmflow run -f review.yaml -`,
		GroupID: groupPipelines,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDefinition(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "pipeline definition file")
	cmd.Flags().StringToStringVarP(&opts.params, "param", "p", nil, "pipeline parameter as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) runDefinition(ctx context.Context, opts *runOptions, args []string) error {
	def, err := pipeline.LoadDefinition(opts.file)
	if err != nil {
		return err
	}
	if missing := def.MissingParams(opts.params); len(missing) > 0 {
		return fmt.Errorf("pipeline %s needs --param for: %s", def.Name, strings.Join(missing, ", "))
	}

	s, err := c.start(ctx)
	if err != nil {
		return err
	}
	return s.app.RunTask(ctx, func(ctx context.Context) error {
		client, err := s.client()
		if err != nil {
			return err
		}
		stages, err := def.Build(client)
		if err != nil {
			return err
		}

		input := pipeline.NewInput("", def.Name, opts.params)
		if len(args) == 1 {
			src, err := s.loader()
			if err != nil {
				return err
			}
			doc, err := src.Load(ctx, args[0])
			if err != nil {
				return err
			}
			input = pipeline.NewInput(doc.Text, doc.Source, opts.params)
		}

		cfg := s.app.Cfg.Report
		if cfg.Title == "" {
			cfg.Title = def.Name
		}
		return s.run(ctx, def.Name, stages, input, cfg)
	})
}
