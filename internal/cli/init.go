package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/careerdex/internal/usecase/bootstrap"
)

func newInitCmd(opts *options) *cobra.Command {
	var force, checkOnly bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Load portfolio data when the store is empty",
		Long: `Create the fixed collections and load every data file when neither experience
nor projects holds a record. --force reloads from scratch; --check-only prints
the counts and exits 0 when populated, 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if checkOnly {
				st, err := a.Bootstrap.Status(ctx)
				if err != nil {
					return err
				}
				printStatus(opts.out, st)
				if !st.Populated {
					return &ExitError{Code: 1}
				}
				return nil
			}

			outcomes, loaded, err := a.Bootstrap.Init(ctx, force, newProgress(opts.out))
			if err != nil {
				return err
			}
			if !loaded {
				color.New(color.FgGreen).Fprintln(opts.out, "Document store already populated, nothing to do")
				return nil
			}
			return summarize(opts.out, outcomes)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "reset and reload even when populated")
	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "only report whether the store is populated")
	return cmd
}

func printStatus(out io.Writer, st bootstrap.Status) {
	names := make([]string, 0, len(st.Counts))
	for name := range st.Counts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(out, "%-12s %d\n", name, st.Counts[name])
	}
	if st.Populated {
		color.New(color.FgGreen).Fprintln(out, "populated")
	} else {
		color.New(color.FgYellow).Fprintln(out, "empty")
	}
}
