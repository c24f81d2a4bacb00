package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/careerdex/internal/domain"
	"github.com/kailas-cloud/careerdex/internal/usecase/tool"
)

func newSearchCmd(opts *options) *cobra.Command {
	var (
		coll      string
		topK      int
		threshold float64
		filters   []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Semantic search over a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fm, err := parseFilters(filters)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer closeApp(a)

			in := tool.SearchInput{Query: args[0], Filters: fm}
			if cmd.Flags().Changed("collection") {
				in.Collection = &coll
			}
			if cmd.Flags().Changed("top-k") {
				in.TopK = &topK
			}
			if cmd.Flags().Changed("threshold") {
				in.SimilarityThreshold = &threshold
			}

			resp := a.Tools.SearchExperience(ctx, in)
			if asJSON {
				return writeIndented(opts.out, resp)
			}
			if resp.Status == tool.StatusError {
				return fmt.Errorf("%s", resp.Message)
			}
			printResults(opts.out, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&coll, "collection", "experience", "collection to search")
	cmd.Flags().IntVar(&topK, "top-k", 5, "maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.7, "minimum similarity")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "metadata equality filter key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response envelope")
	return cmd
}

func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", domain.ErrInvalidFilter, p)
		}
		out[k] = v
	}
	return out, nil
}

func printResults(out io.Writer, resp tool.SearchResponse) {
	color.New(color.FgCyan).Fprintf(out, "%d results for %q in %s\n\n", len(resp.Results), resp.Query, resp.Collection)
	for i, r := range resp.Results {
		color.New(color.FgGreen, color.Bold).Fprintf(out, "%d. %s", i+1, r.ID)
		fmt.Fprintf(out, "  (similarity %.3f)\n", r.Similarity)
		fmt.Fprintln(out, indent(r.Document))
		fmt.Fprintln(out)
	}
}

func indent(s string) string {
	return "   " + strings.ReplaceAll(s, "\n", "\n   ")
}

func writeIndented(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
