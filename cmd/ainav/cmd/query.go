package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	aerrors "github.com/ainav/ainav/internal/errors"
	"github.com/ainav/ainav/internal/httpapi"
	"github.com/ainav/ainav/internal/ui"
)

func newQueryCmd() *cobra.Command {
	var topK int
	var repoPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Query an indexed repository (POST /query)",
		Long: `Runs the hybrid semantic/keyword/symbol/intent/structural ranking pipeline against
an already-indexed repository and prints the ranked results.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := repoPath
			if repo == "" {
				resolved, err := resolveRepoPath(nil)
				if err != nil {
					return err
				}
				repo = resolved
			}
			query := strings.Join(args, " ")

			client := newAPIClient(serverAddr)
			var resp httpapi.QueryResponse
			req := httpapi.QueryRequest{RepoPath: repo, Query: query, TopK: topK}
			if err := client.post(cmd.Context(), "/query", req, &resp); err != nil {
				return fmt.Errorf("%s", aerrors.FormatForCLI(err))
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printQueryResults(cmd, resp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "n", httpapi.DefaultTopK, "Maximum number of results (1-50)")
	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository path (defaults to the project containing the cwd)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON response")

	return cmd
}

func printQueryResults(cmd *cobra.Command, resp httpapi.QueryResponse) {
	out := ui.New(cmd.OutOrStdout())
	if len(resp.Results) == 0 {
		out.Warning("no results")
		return
	}
	for i, r := range resp.Results {
		loc := fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
		if r.Symbol != "" {
			loc = fmt.Sprintf("%s  %s", loc, r.Symbol)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s  score=%s\n", i+1, loc, out.Score(r.Score))
		if r.Description != "" {
			out.Dim("    " + r.Description)
		}
	}
	if resp.UsedLLM {
		out.Dim(fmt.Sprintf("selection via LLM (%s, %dms)", resp.LLMModel, resp.LLMLatencyMS))
	}
}
