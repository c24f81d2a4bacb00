package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/careerdex/internal/usecase/tool"
)

func newSkillsCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Aggregate skills across experience and projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			resp := a.Tools.AnalyzeSkills(ctx)
			if asJSON {
				return writeIndented(opts.out, resp)
			}
			if resp.Status == tool.StatusError {
				return fmt.Errorf("%s", resp.Message)
			}
			printSkills(opts.out, resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response envelope")
	return cmd
}

func printSkills(out io.Writer, resp tool.SkillsResponse) {
	color.New(color.FgCyan).Fprintf(out, "%d unique skills\n\n", resp.TotalUniqueSkills)
	for _, sc := range resp.TopSkills {
		fmt.Fprintf(out, "  %-24s %d\n", sc.Skill, sc.Count)
	}
	if resp.Analysis.MostUsed != nil {
		fmt.Fprintf(out, "\nmost used: %s, average frequency %.2f\n",
			color.GreenString(*resp.Analysis.MostUsed), resp.Analysis.AverageSkillFrequency)
	}
}
