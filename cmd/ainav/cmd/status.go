package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	aerrors "github.com/ainav/ainav/internal/errors"
	"github.com/ainav/ainav/internal/httpapi"
	"github.com/ainav/ainav/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [repo-path]",
		Short: "Show index status for a repository (GET /status)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath, err := resolveRepoPath(args)
			if err != nil {
				return err
			}

			client := newAPIClient(serverAddr)
			var resp httpapi.StatusResponse
			path := "/status?repo_path=" + url.QueryEscape(repoPath)
			if err := client.get(cmd.Context(), path, &resp); err != nil {
				return fmt.Errorf("%s", aerrors.FormatForCLI(err))
			}

			out := ui.New(cmd.OutOrStdout())
			if resp.Healthy {
				out.Success(fmt.Sprintf("%s is healthy", resp.RepoPath))
			} else {
				out.Warning(fmt.Sprintf("%s is unhealthy", resp.RepoPath))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  model: %s\n  indexed files: %d\n  indexed chunks: %d\n",
				resp.Model, resp.IndexedFiles, resp.IndexedChunks)
			if resp.LastIndexedAt != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  last indexed: %s\n", resp.LastIndexedAt)
			}
			return nil
		},
	}

	return cmd
}
