package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:     "plugins",
	Short:   "List the registered adapters",
	Args:    cobra.NoArgs,
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tORIGIN\tVERSION\tDESCRIPTION")
		for _, p := range plugin.GetRegistry().ListPlugins() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Kind, p.Origin, p.Version, p.Description)
		}
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printVersionInfo(cmd)
	},
}

func printVersionInfo(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "MQC %s\n", config.Version)
	fmt.Fprintf(out, "Git commit: %s\n", config.Commit)
	fmt.Fprintf(out, "Compilation time: %s\n", config.BuildDate)
}
