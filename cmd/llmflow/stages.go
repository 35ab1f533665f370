package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kbukum/llmflow/pipeline"
	"github.com/kbukum/llmflow/workflows"
)

func (c *cli) stagesCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "stages <workflow> | stages -f <pipeline.yaml>",
		Short: "List the stages of a workflow or pipeline definition",
		Long: `List the stages of a workflow or pipeline definition in run order.
LEVEL is the stage's dependency depth: stages on the same level depend only
on earlier levels.`,
		GroupID: groupPipelines,
		Args: func(_ *cobra.Command, args []string) error {
			switch {
			case file == "" && len(args) != 1:
				return fmt.Errorf("stages expects a workflow name (one of: %s)", strings.Join(c.registry.List(), ", "))
			case file != "" && len(args) != 0:
				return fmt.Errorf("stages takes either a workflow name or -f, not both")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			name, graph, err := c.graph(file, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s\n\n%s\n", name, renderGraph(graph))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "pipeline definition file")
	return cmd
}

func (c *cli) graph(file string, args []string) (string, []workflows.StageInfo, error) {
	if file != "" {
		def, err := pipeline.LoadDefinition(file)
		if err != nil {
			return "", nil, err
		}
		stages, err := def.Build(nil)
		if err != nil {
			return "", nil, err
		}
		graph, err := workflows.Graph(stages, nil)
		return def.Name, graph, err
	}

	w, ok := c.registry.Get(args[0])
	if !ok {
		return "", nil, fmt.Errorf("unknown workflow %q (one of: %s)", args[0], strings.Join(c.registry.List(), ", "))
	}
	graph, err := w.Graph()
	return fmt.Sprintf("%s: %s", w.Name, w.Title), graph, err
}

func renderGraph(graph []workflows.StageInfo) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("LEVEL", "STAGE", "KIND", "DEPENDS ON", "TITLE")
	for _, s := range graph {
		deps := "-"
		if len(s.DependsOn) > 0 {
			deps = strings.Join(s.DependsOn, ", ")
		}
		t.Row(strconv.Itoa(s.Level), s.Name, s.Kind.String(), deps, s.Title)
	}
	return t.Render()
}
