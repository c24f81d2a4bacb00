package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/careerdex/internal/ingest/loader"
	"github.com/kailas-cloud/careerdex/internal/usecase/bootstrap"
)

func newLoadCmd(opts *options) *cobra.Command {
	var (
		kinds []string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Index portfolio data files into their collections",
		Long: `Render work_history.json, projects.json and skills.json into documents and
index them. A failing collection does not stop the others; the exit code is 1
when any collection failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected, err := parseKinds(kinds)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if reset {
				color.New(color.FgYellow).Fprintln(opts.out, "Resetting document store...")
				if err := a.Bootstrap.Reset(ctx); err != nil {
					return fmt.Errorf("reset: %w", err)
				}
			}

			outcomes := a.Bootstrap.Load(ctx, selected, newProgress(opts.out))
			return summarize(opts.out, outcomes)
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "collections", nil, "kinds to load: work_history, projects, skills (default all)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop every collection before loading")
	return cmd
}

func parseKinds(names []string) ([]loader.Kind, error) {
	if len(names) == 0 {
		return loader.Kinds(), nil
	}
	out := make([]loader.Kind, 0, len(names))
	for _, n := range names {
		k, err := loader.ParseKind(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// newProgress draws one bar per kind.
func newProgress(out io.Writer) bootstrap.ProgressFunc {
	var (
		bar     *progressbar.ProgressBar
		current loader.Kind
	)
	return func(kind loader.Kind, done, total int) {
		if bar == nil || kind != current {
			current = kind
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(color.CyanString("%-12s", kind)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
			)
		}
		_ = bar.Set(done)
	}
}

func summarize(out io.Writer, outcomes []bootstrap.Outcome) error {
	fmt.Fprintln(out)
	for _, o := range outcomes {
		if o.Err != nil {
			color.New(color.FgRed).Fprintf(out, "✗ %-12s -> %-11s %v\n", o.Kind, o.Collection, o.Err)
			continue
		}
		color.New(color.FgGreen).Fprintf(out, "✓ %-12s -> %-11s %d documents, %d chunks\n",
			o.Kind, o.Collection, o.Documents, o.Chunks)
	}

	if failed := bootstrap.Failed(outcomes); failed > 0 {
		color.New(color.FgRed).Fprintf(out, "\n%d of %d collections failed\n", failed, len(outcomes))
		return &ExitError{Code: 1}
	}
	return nil
}
