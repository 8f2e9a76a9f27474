// Package commands implements the CLI commands for the bld build tool.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.trai.ch/bld/internal/adapters/detector"
	"go.trai.ch/bld/internal/app"
	"go.trai.ch/bld/internal/build"
	"go.trai.ch/bld/internal/core/domain"
)

// CLI represents the command line interface for bld.
type CLI struct {
	app     Application
	logs    LogConfigurer
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, targets []string, opts app.BuildOptions) error
	Exec(ctx context.Context, cmds []domain.Command, opts app.ExecOptions) error
	Watch(ctx context.Context, targets []string, opts app.BuildOptions) error
}

// LogConfigurer adjusts the log output before a command runs.
type LogConfigurer interface {
	SetJSON(enable bool)
	SetLevel(level slog.Level)
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogConfigurer lets the global flags switch the log format and level.
func WithLogConfigurer(l LogConfigurer) Option {
	return func(c *CLI) {
		c.logs = l
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "bld",
		Short:         "Build targets from a dependency graph and run commands in parallel",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().String("log-format", "auto", "Log format: auto, pretty, or json")
	rootCmd.PersistentFlags().Bool("json", false, "Log as JSON (shorthand for --log-format=json)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = c.configureLogs

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newExecCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) configureLogs(cmd *cobra.Command, _ []string) error {
	flag, _ := cmd.Flags().GetString("log-format")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		flag = "json"
	}

	format, err := detector.ResolveFormat(detector.DetectEnvironment(), flag)
	if err != nil {
		return err
	}
	if c.logs == nil {
		return nil
	}

	c.logs.SetJSON(format == detector.FormatJSON)
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		c.logs.SetLevel(slog.LevelWarn)
	}
	return nil
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
