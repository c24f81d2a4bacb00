// Package cli implements careerctl, the ingestion and query command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/careerdex/internal/app"
	"github.com/kailas-cloud/careerdex/internal/config"
	logpkg "github.com/kailas-cloud/careerdex/internal/logger"
	"github.com/kailas-cloud/careerdex/internal/version"
)

// ExitError carries a process exit code without printing an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

type options struct {
	env        string
	configPath string
	dataDir    string
	verbose    bool

	out io.Writer
	cfg config.Config
}

// NewRootCmd builds the careerctl command tree.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{out: out}

	root := &cobra.Command{
		Use:   "careerctl",
		Short: "Load and query the careerdex portfolio index",
		Long: `careerctl loads portfolio data files into the careerdex document store and
runs the retrieval tools from the terminal.

Example usage:
  careerctl init                       # Load data when the store is empty
  careerctl load --collections projects --reset
  careerctl search "distributed systems" --top-k 3
  careerctl skills`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if opts.configPath != "" {
				opts.cfg, err = config.LoadFile(opts.configPath)
			} else {
				opts.cfg, err = config.Load(opts.env)
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.dataDir != "" {
				opts.cfg.Ingest.DataDir = opts.dataDir
			}
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "config environment (local, docker, prod)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "explicit config file, overrides --env")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "portfolio data directory, overrides ingest.data_dir")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newLoadCmd(opts),
		newInitCmd(opts),
		newSearchCmd(opts),
		newSkillsCmd(opts),
	)
	return root
}

// Execute runs careerctl and returns the process exit code.
func Execute() int {
	err := NewRootCmd(os.Stdout).Execute()
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// open builds the application for one command run.
func (o *options) open(ctx context.Context) (*app.App, error) {
	level := ""
	if o.verbose {
		level = "debug"
	}
	l, err := logpkg.New("cli", level)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, o.cfg, l)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := a.Bootstrap.EnsureCollections(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("Error closing store", zap.Error(err))
	}
}
