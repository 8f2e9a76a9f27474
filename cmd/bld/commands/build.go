package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bld/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Bring targets up to date",
		Long: `Build the named targets and everything they depend on, running only
the commands whose outputs are older than their dependencies.

Without targets, "all" is built when the build file declares it; otherwise
every target that nothing else depends on.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [targets...]",
		Short: "Rebuild targets whenever a file changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Path to the build file (default: nearest bld.yaml)")
	cmd.Flags().IntP("jobs", "j", 1, "Number of commands to run at once (0 for one per CPU)")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	file, _ := cmd.Flags().GetString("file")
	jobs, _ := cmd.Flags().GetInt("jobs")
	return app.BuildOptions{File: file, Jobs: jobs}
}
