package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/version"
)

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Run multi-stage LLM pipelines",
		Long: `llmflow runs a fixed sequence of LLM stages over one input. Each stage
sees the input and the results of the stages it depends on; structured
stages are validated against a schema and streamed stages print as they
are generated.

Credentials and defaults come from config.yml, .env, and the environment
(ANTHROPIC_API_KEY, LLM_MODEL, LLM_DIALECT, ...).`,
		Version:       version.Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%s: %w", cmd.CommandPath(), err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "config file (default: ./llmflow.yml, ./config.yml, or the user config dir)")
	flags.StringVar(&c.envFile, "env-file", "", "env file loaded before the environment is read")
	flags.StringVar(&c.dialect, "dialect", "", fmt.Sprintf("llm dialect (%s)", strings.Join(llm.Dialects(), ", ")))
	flags.StringVarP(&c.model, "model", "m", "", "model override")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&c.plain, "plain", false, "plain output without colors or markdown rendering")

	root.AddGroup(
		&cobra.Group{ID: groupWorkflows, Title: "Workflows:"},
		&cobra.Group{ID: groupPipelines, Title: "Pipelines:"},
	)
	for _, name := range c.registry.List() {
		w, _ := c.registry.Get(name)
		root.AddCommand(c.workflowCommand(w))
	}
	root.AddCommand(
		c.runCommand(),
		c.stagesCommand(),
		c.versionCommand(),
	)
	return root
}
