package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rankfuse/rankfuse/internal/retrieval"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK   int
	format string // "text", "json"
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank corpus passages against a query",
		Long: `Rank the corpus passages against a query using hybrid retrieval.

BM25 and embedding-similarity scores are combined with weighted
Reciprocal Rank Fusion; a cross-encoder reranking pass runs when
enabled in the config.

Examples:
  rankfuse search "error handling" --corpus docs.yaml
  rankfuse search "connection pool" --corpus passages.db --top-k 3
  rankfuse search "retry policy" --corpus docs.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			session, cleanup, err := openSession(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := session.RetrieveAndRank(cmd.Context(), query, opts.topK)
			if err != nil {
				return err
			}
			return printResults(cmd, results, opts.format)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 5, "Number of results to return")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// resultJSON is the JSON shape for one ranked passage.
type resultJSON struct {
	ID         int               `json:"id"`
	Score      float64           `json:"score"`
	FusedScore float64           `json:"fused_score"`
	Degraded   bool              `json:"degraded,omitempty"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func printResults(cmd *cobra.Command, results []retrieval.RankedPassage, format string) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(toResultJSON(results))
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}
	for i, r := range results {
		marker := ""
		if r.Degraded {
			marker = " (degraded)"
		}
		fmt.Fprintf(out, "%2d. [%d] score=%.4f%s\n    %s\n",
			i+1, r.Passage.ID, r.Score, marker, r.Passage.Content)
	}
	return nil
}
