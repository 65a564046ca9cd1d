package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rankfuse/rankfuse/internal/retrieval"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	var topK int
	var format string

	cmd := &cobra.Command{
		Use:   "compare <query>",
		Short: "Compare lexical, semantic, and hybrid rankings",
		Long: `Run lexical-only, semantic-only, and hybrid retrieval independently
against the same query and show all three orderings side by side.

Useful for tuning alpha and evaluating whether reranking helps a
given corpus.

Examples:
  rankfuse compare "index tuning" --corpus docs.yaml --top-k 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			session, cleanup, err := openSession(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer cleanup()

			cmp, err := session.CompareSearchMethods(cmd.Context(), query, topK)
			if err != nil {
				return err
			}
			return printComparison(cmd, cmp, format)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "n", 5, "Number of results per strategy")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func printComparison(cmd *cobra.Command, cmp *retrieval.Comparison, format string) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		payload := map[string][]resultJSON{
			"lexical_only":    toResultJSON(cmp.LexicalOnly),
			"semantic_only":   toResultJSON(cmp.SemanticOnly),
			"hybrid_reranked": toResultJSON(cmp.HybridReranked),
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	sections := []struct {
		title   string
		results []retrieval.RankedPassage
	}{
		{"Lexical only (BM25)", cmp.LexicalOnly},
		{"Semantic only (embeddings)", cmp.SemanticOnly},
		{"Hybrid (RRF + rerank)", cmp.HybridReranked},
	}
	for _, s := range sections {
		fmt.Fprintf(out, "=== %s ===\n", s.title)
		if err := printResults(cmd, s.results, "text"); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func toResultJSON(results []retrieval.RankedPassage) []resultJSON {
	payload := make([]resultJSON, len(results))
	for i, r := range results {
		payload[i] = resultJSON{
			ID:         r.Passage.ID,
			Score:      r.Score,
			FusedScore: r.FusedScore,
			Degraded:   r.Degraded,
			Content:    r.Passage.Content,
			Metadata:   r.Passage.Metadata,
		}
	}
	return payload
}
