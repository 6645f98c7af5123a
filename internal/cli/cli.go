// Package cli implements the feedsolve command-line interface.
package cli

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/feedsolve/pkg/buildinfo"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/observability/promhooks"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "feedsolve"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Exit statuses.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitNoSolution = 1
	ExitUsage      = 2
	ExitInterrupt  = 130 // shell convention for SIGINT
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	metricsFile string
	metrics     *promhooks.Hooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Feedsolve selects compatible implementations from 0install feeds",
		Long: `Feedsolve reads 0install feeds and picks one implementation of every
interface a program needs, honouring version ranges, restrictions, platform
and stability policy. The result is a selections document that can be
diffed, inspected and checked against the local implementation store.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/feedsolve/config.toml)")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(c.selectCommand())
	root.AddCommand(c.candidatesCommand())
	root.AddCommand(c.solveExternalCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.uncachedCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup runs before every command: it attaches the logger to the command
// context and installs metric hooks when --metrics-file is set.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	if c.metricsFile != "" && c.metrics == nil {
		c.metrics = promhooks.New()
		c.metrics.Install()
	}
	return nil
}

// Finish flushes state that must outlive a failed command, currently the
// metrics file. Call it after Execute regardless of the result.
func (c *CLI) Finish() error {
	if c.metrics == nil || c.metricsFile == "" {
		return nil
	}
	if err := c.metrics.WriteFile(c.metricsFile); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "write metrics %s", c.metricsFile)
	}
	c.Logger.Debug("metrics written", "path", c.metricsFile)
	return nil
}

// =============================================================================
// Exit Codes
// =============================================================================

// exitError carries a specific exit status out of a command. A silent
// error has already been shown to the user.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// withExitCode attaches an exit status to err.
func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// reported marks err as already printed and attaches an exit status.
func reported(code int, err error) error {
	return &exitError{code: code, err: err, silent: true}
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errs.IsInputError(err) {
		return ExitUsage
	}
	return ExitFailure
}

// Silent reports whether err has already been shown to the user.
func Silent(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.silent
}
