package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bld/internal/app"
	"go.trai.ch/bld/internal/core/domain"
)

func (c *CLI) newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [flags] -- command...",
		Short: "Run independent commands in parallel",
		Long: `Run every argument as a separate command on a pool of workers.

Each argument is one command line. Without --shell it is split into words
like a shell would, but pipes, redirections and variables are not supported.`,
		Example: `  bld exec -t 4 -- "cc -c a.c" "cc -c b.c"
  bld exec --shell -- "gzip -k *.log"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, _ := cmd.Flags().GetBool("shell")
			threads, _ := cmd.Flags().GetInt("threads")
			strict, _ := cmd.Flags().GetBool("strict")

			cmds, err := parseCommands(args, shell)
			if err != nil {
				return err
			}
			return c.app.Exec(cmd.Context(), cmds, app.ExecOptions{Threads: threads, Strict: strict})
		},
	}
	cmd.Flags().IntP("threads", "t", 0, "Number of commands to run at once (0 for one per CPU)")
	cmd.Flags().Bool("strict", false, "Fail if any command fails")
	cmd.Flags().Bool("shell", false, "Run each command line through /bin/sh")
	return cmd
}

func parseCommands(lines []string, shell bool) ([]domain.Command, error) {
	cmds := make([]domain.Command, 0, len(lines))
	for _, line := range lines {
		if shell {
			cmds = append(cmds, domain.ShellCommand(line))
			continue
		}
		cmd, err := domain.ParseCommand(line)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
