// Package index implements the incremental indexer (spec §4.8): walk,
// hash, diff, parse, chunk, embed, and upsert into the metadata and
// vector stores.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ainav/ainav/internal/chunk"
	"github.com/ainav/ainav/internal/llm"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/scanner"
	"github.com/ainav/ainav/internal/vectorstore"
)

// Embedder is the subset of internal/embed's Service used to encode
// document text during indexing.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Result is the outcome of an indexing run (spec §4.8).
type Result struct {
	FilesScanned  int
	FilesIndexed  int
	FilesDeleted  int
	ChunksIndexed int
	Duration      time.Duration
}

// Indexer orchestrates one repository's index lifecycle.
type Indexer struct {
	meta      metastore.Store
	vectors   vectorstore.Store
	embedder  Embedder
	builder   *chunk.Builder
	summarize *llm.Summarizer // nil disables summarization
}

func New(meta metastore.Store, vectors vectorstore.Store, embedder Embedder, summarizer *llm.Summarizer) *Indexer {
	return &Indexer{
		meta:      meta,
		vectors:   vectors,
		embedder:  embedder,
		builder:   chunk.NewBuilder(chunk.DefaultBuilderConfig()),
		summarize: summarizer,
	}
}

// Run indexes repoPath, honoring rebuild (spec §4.8 algorithm).
func (idx *Indexer) Run(ctx context.Context, repoPath string, rebuild bool) (*Result, error) {
	start := time.Now()
	res := &Result{}

	rebuilding, err := idx.vectors.EnsureCollection(ctx, repoPath, idx.embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	if rebuilding && !rebuild {
		slog.Warn("vector_collection_recreated", slog.String("repo", repoPath))
		rebuild = true
	}
	if rebuild {
		if err := idx.meta.ClearRepo(ctx, repoPath); err != nil {
			return nil, fmt.Errorf("clear repo: %w", err)
		}
	}

	storedHashes, err := idx.meta.GetFileHashes(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("get file hashes: %w", err)
	}

	ch, err := scanner.Scan(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("scan repo: %w", err)
	}

	seen := make(map[string]struct{}, len(storedHashes))
	for r := range ch {
		if r.Err != nil {
			slog.Warn("scan_file_skipped", slog.String("error", r.Err.Error()))
			continue
		}
		res.FilesScanned++
		f := r.File
		seen[f.Path] = struct{}{}

		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			slog.Warn("file_unreadable", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		hash := hashContent(content)
		if !rebuild && storedHashes[f.Path] == hash {
			continue
		}

		if err := idx.indexFile(ctx, repoPath, f.Path, f.Language, content, hash); err != nil {
			slog.Warn("file_index_failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		res.FilesIndexed++
	}

	var toDelete []string
	for path := range storedHashes {
		if _, ok := seen[path]; !ok {
			toDelete = append(toDelete, path)
		}
	}
	if len(toDelete) > 0 {
		if err := idx.deleteFiles(ctx, repoPath, toDelete); err != nil {
			return nil, fmt.Errorf("delete removed files: %w", err)
		}
		res.FilesDeleted = len(toDelete)
	}

	res.ChunksIndexed, err = idx.vectors.CountChunks(ctx, repoPath)
	if err != nil {
		slog.Warn("count_chunks_failed", slog.String("error", err.Error()))
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (idx *Indexer) indexFile(ctx context.Context, repoPath, relPath, language string, content []byte, hash string) error {
	if err := idx.clearFile(ctx, repoPath, relPath); err != nil {
		return err
	}

	chunks, err := idx.builder.Build(ctx, relPath, language, content)
	if err != nil {
		return fmt.Errorf("build chunks: %w", err)
	}
	if len(chunks) == 0 {
		return idx.meta.UpsertFileHash(ctx, repoPath, relPath, hash)
	}

	if idx.summarize != nil {
		for _, c := range chunks {
			c.LLMSummary = idx.summarize.Summarize(ctx, c.FilePath, c.Symbol, c.ContentHash, c.Text)
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = EmbeddingText(c)
	}
	vectors, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	if err := idx.meta.UpsertChunks(ctx, repoPath, chunks); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ChunkID: c.ChunkID,
			Vector:  vectors[i],
			Payload: map[string]any{
				"file_path":   c.FilePath,
				"symbol":      c.Symbol,
				"symbol_kind": c.SymbolKind,
				"language":    c.Language,
			},
		}
	}
	if err := idx.vectors.Upsert(ctx, repoPath, points); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}

	return idx.meta.UpsertFileHash(ctx, repoPath, relPath, hash)
}

func (idx *Indexer) clearFile(ctx context.Context, repoPath, relPath string) error {
	ids, err := idx.meta.GetChunkIDsForFile(ctx, repoPath, relPath)
	if err != nil {
		return fmt.Errorf("get chunk ids: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := idx.vectors.DeleteByChunkIDs(ctx, repoPath, ids); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return idx.meta.DeleteChunksByFile(ctx, repoPath, relPath)
}

func (idx *Indexer) deleteFiles(ctx context.Context, repoPath string, relPaths []string) error {
	for _, relPath := range relPaths {
		if err := idx.vectors.DeleteByFilePath(ctx, repoPath, relPath); err != nil {
			return err
		}
	}
	return idx.meta.DeleteFiles(ctx, repoPath, relPaths)
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// EmbeddingText builds the enriched semantic view embedded for a chunk
// (spec §4.9): file/symbol/type/intent header, summary body, and an
// optional HTTP metadata footer. The raw code is deliberately excluded.
func EmbeddingText(c *chunk.CodeChunk) string {
	symbol := c.Symbol
	if symbol == "" {
		symbol = "-"
	}
	kind := c.SymbolKind
	if kind == "" {
		kind = "major_block"
	}
	intentStr := "unknown"
	if len(c.IntentTags) > 0 {
		intentStr = strings.Join(c.IntentTags, ", ")
	}
	summary := c.LLMSummary
	if summary == "" {
		summary = c.Description
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", c.FilePath)
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Type: %s\n", kind)
	fmt.Fprintf(&b, "Intent: %s\n\n", intentStr)
	fmt.Fprintf(&b, "Summary:\n%s\n", summary)

	if c.RouteMethod != "" || c.RoutePath != "" {
		method := c.RouteMethod
		if method == "" {
			method = "-"
		}
		route := c.RoutePath
		if route == "" {
			route = "-"
		}
		fmt.Fprintf(&b, "\nHTTP Metadata:\nMethod: %s\nRoute: %s\n", method, route)
	}

	return b.String()
}
