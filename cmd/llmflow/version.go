package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/llmflow/version"
)

func (c *cli) versionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			if short {
				fmt.Fprintln(c.stdout, version.Short())
				return
			}
			fmt.Fprintln(c.stdout, version.Get().String())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}
