package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	appconfig "github.com/ainav/ainav/internal/config"
	"github.com/ainav/ainav/internal/daemon"
	"github.com/ainav/ainav/internal/embed"
	"github.com/ainav/ainav/internal/httpapi"
	"github.com/ainav/ainav/internal/index"
	"github.com/ainav/ainav/internal/llm"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/rank"
	"github.com/ainav/ainav/internal/rerank"
	"github.com/ainav/ainav/internal/search"
	"github.com/ainav/ainav/internal/ui"
	"github.com/ainav/ainav/internal/vectorstore"
)

func newServeCmd() *cobra.Command {
	var qdrantHost string
	var qdrantPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ainav HTTP daemon",
		Long: `Starts the HTTP daemon exposing POST /index, POST /query, and GET
/status (spec §6). The daemon serializes indexing per repository and
bounds concurrent LLM/cross-encoder calls through the query engine's
worker pools; run one instance per machine and point the CLI
subcommands at it with --server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, qdrantHost, qdrantPort)
		},
	}

	cmd.Flags().StringVar(&qdrantHost, "qdrant-host", vectorstore.DefaultQdrantConfig().Host, "Qdrant gRPC host")
	cmd.Flags().IntVar(&qdrantPort, "qdrant-port", vectorstore.DefaultQdrantConfig().Port, "Qdrant gRPC port")

	return cmd
}

func runServe(cmd *cobra.Command, qdrantHost string, qdrantPort int) error {
	ctx := cmd.Context()
	out := ui.New(cmd.OutOrStdout())
	cfg := appconfig.Load()

	daemonCfg := daemon.DefaultConfig()
	if err := daemonCfg.EnsureDir(); err != nil {
		return err
	}
	lock := daemon.NewStartLock(daemonCfg.PIDPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("another ainav serve instance is already running (pid file: %s)", daemonCfg.PIDPath)
	}
	defer lock.Unlock()

	pidFile := daemon.NewPIDFile(daemonCfg.PIDPath)
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer pidFile.Remove()

	meta, err := metastore.Open(metadataPath())
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer meta.Close()

	qdrantCfg := vectorstore.QdrantConfig{Host: qdrantHost, Port: qdrantPort}
	vectors, err := vectorstore.NewQdrantStore(qdrantCfg)
	if err != nil {
		return fmt.Errorf("connect to qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
	}
	defer vectors.Close()

	backend, err := embed.NewBackend(ctx, cfg.Embedding.Model)
	if err != nil {
		return fmt.Errorf("init embedding backend: %w", err)
	}
	embedSvc := embed.NewService(backend, meta, embed.DefaultMemoryCacheSize)

	llmClient := llm.NewClient(cfg.LLM.Model)
	summarizer := llm.NewSummarizer(llmClient, meta)

	indexer := index.New(meta, vectors, embedSvc, summarizer)

	searchOpts := []search.Option{
		WithRankConfigFromEnv(cfg),
		search.WithVectorThreshold(cfg.LLM.ConfidenceThreshold),
	}
	if cfg.Rewrite.Enabled {
		searchOpts = append(searchOpts, search.WithPreSearchRewrite(llm.NewRewriter(llmClient)))
	}
	// The LLM reranker is always wired; AINAV_LLM=none gives a NullClient
	// whose Available() is false, so LLMRerank falls back to the vector
	// selection without a separate enable flag (spec §4.13).
	var rerankRewriter *llm.Rewriter
	if cfg.LLM.EnableRewrite {
		rerankRewriter = llm.NewRewriter(llmClient)
	}
	searchOpts = append(searchOpts, search.WithLLMReranker(llmClient, rerankRewriter))
	if cfg.Rerank.Enabled {
		ceCfg := rerank.DefaultCrossEncoderConfig()
		if cfg.Rerank.Model != "" {
			ceCfg.Model = cfg.Rerank.Model
		}
		searchOpts = append(searchOpts, search.WithCrossEncoder(rerank.NewHTTPCrossEncoder(ceCfg)))
	}
	// LLM/cross-encoder worker-pool sizes use search.New's own spec §5
	// defaults (4/1); no env override is named for them.
	engine := search.New(meta, vectors, embedSvc, searchOpts...)

	d := daemon.New(indexer, engine, meta)

	server := httpapi.NewServer(d, cfg.Embedding.Model)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpSrv := &http.Server{Addr: addr, Handler: server}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	out.Success(fmt.Sprintf("ainav serve listening on %s (pid %d)", addr, os.Getpid()))

	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
	case <-sigCtx.Done():
		out.Dim("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), daemonCfg.ShutdownGracePeriod)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}

// WithRankConfigFromEnv adapts internal/config's env-tunable rank
// multipliers into an internal/rank.Config search.Option.
func WithRankConfigFromEnv(cfg *appconfig.Config) search.Option {
	return search.WithRankConfig(rank.Config{
		IntentBoost:  cfg.Rank.IntentBoost,
		RouteBoost:   cfg.Rank.RouteBoost,
		NoisePenalty: cfg.Rank.NoisePenalty,
	})
}

func metadataPath() string {
	if root := os.Getenv("AINAV_DATA_ROOT"); root != "" {
		return filepath.Join(root, "metadata.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	dir := filepath.Join(home, ".ainav")
	os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "metadata.db")
}
