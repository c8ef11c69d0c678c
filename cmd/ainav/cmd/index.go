package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ainav/ainav/internal/config"
	aerrors "github.com/ainav/ainav/internal/errors"
	"github.com/ainav/ainav/internal/httpapi"
	"github.com/ainav/ainav/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "index [repo-path]",
		Short: "Index a repository (POST /index)",
		Long: `Scans the repository, diffs it against the stored file hashes, and
upserts changed chunks into the vector and metadata stores.

With no argument, indexes the repository containing the current
directory (resolved by walking up for a .git directory).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath, err := resolveRepoPath(args)
			if err != nil {
				return err
			}

			client := newAPIClient(serverAddr)
			var resp httpapi.IndexResponse
			if err := client.post(cmd.Context(), "/index", httpapi.IndexRequest{RepoPath: repoPath, Rebuild: rebuild}, &resp); err != nil {
				return fmt.Errorf("%s", aerrors.FormatForCLI(err))
			}

			out := ui.New(cmd.OutOrStdout())
			out.Success(fmt.Sprintf("indexed %s", resp.RepoPath))
			fmt.Fprintf(cmd.OutOrStdout(), "  files scanned: %d\n  files indexed: %d\n  files deleted: %d\n  chunks indexed: %d\n  duration: %dms\n",
				resp.FilesScanned, resp.FilesIndexed, resp.FilesDeleted, resp.ChunksIndexed, resp.DurationMS)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Discard and rebuild the index from scratch")

	return cmd
}

// resolveRepoPath returns args[0] if present, else the project root
// found by walking up from the current directory.
func resolveRepoPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return config.FindProjectRoot(cwd)
}
