package metastore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ainav/ainav/internal/chunk"
)

// SQLiteStore is the sqlite-backed Store (spec §4.5). One database file
// holds files, chunks, the embedding cache, and the chunk-summary cache for
// every repo this process has indexed; rows are partitioned by repo_path.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path, enables WAL
// mode and synchronous=NORMAL, and migrates the schema forward.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("metastore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("metastore: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

const schemaV1 = `
CREATE TABLE IF NOT EXISTS files (
	repo_path TEXT NOT NULL,
	file_path TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	last_indexed_at TEXT NOT NULL,
	PRIMARY KEY (repo_path, file_path)
);

CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	repo_path TEXT NOT NULL,
	file_path TEXT NOT NULL,
	language TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	symbol_kind TEXT NOT NULL,
	description TEXT NOT NULL,
	text TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	tokens INTEGER NOT NULL,
	keywords TEXT NOT NULL DEFAULT '[]',
	symbol_terms TEXT NOT NULL DEFAULT '[]',
	structural_terms TEXT NOT NULL DEFAULT '[]',
	intent_tags TEXT NOT NULL DEFAULT '[]',
	route_method TEXT,
	route_path TEXT,
	route_intent TEXT,
	route_resource TEXT,
	llm_summary TEXT
);
CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks (repo_path, file_path);

CREATE TABLE IF NOT EXISTS embeddings (
	key TEXT PRIMARY KEY,
	dimension INTEGER NOT NULL,
	vector BLOB NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS summaries (
	summary_key TEXT PRIMARY KEY,
	model_name TEXT NOT NULL,
	summary TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS repo_meta (
	repo_path TEXT PRIMARY KEY,
	last_indexed_at TEXT
);
`

// migrate applies the base schema, then adds any column a prior schema
// version lacked, each with a concrete default (spec §4.5's
// add-missing-column-with-default migration policy).
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("metastore: migrate base schema: %w", err)
	}

	existing, err := s.columnSet("chunks")
	if err != nil {
		return err
	}
	wanted := []struct{ name, ddl string }{
		{"keywords", "ALTER TABLE chunks ADD COLUMN keywords TEXT NOT NULL DEFAULT '[]'"},
		{"symbol_terms", "ALTER TABLE chunks ADD COLUMN symbol_terms TEXT NOT NULL DEFAULT '[]'"},
		{"structural_terms", "ALTER TABLE chunks ADD COLUMN structural_terms TEXT NOT NULL DEFAULT '[]'"},
		{"intent_tags", "ALTER TABLE chunks ADD COLUMN intent_tags TEXT NOT NULL DEFAULT '[]'"},
		{"route_method", "ALTER TABLE chunks ADD COLUMN route_method TEXT"},
		{"route_path", "ALTER TABLE chunks ADD COLUMN route_path TEXT"},
		{"route_intent", "ALTER TABLE chunks ADD COLUMN route_intent TEXT"},
		{"route_resource", "ALTER TABLE chunks ADD COLUMN route_resource TEXT"},
		{"llm_summary", "ALTER TABLE chunks ADD COLUMN llm_summary TEXT"},
	}
	for _, w := range wanted {
		if existing[w.name] {
			continue
		}
		if _, err := s.db.Exec(w.ddl); err != nil {
			return fmt.Errorf("metastore: migrate add column %s: %w", w.name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) columnSet(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("metastore: table_info(%s): %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &primaryKey); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// encodeSet JSON-encodes a set-valued field, degrading nil to "[]".
func encodeSet(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeSet degrades malformed JSON to an empty slice rather than failing
// the read (spec §4.5).
func decodeSet(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func (s *SQLiteStore) ClearRepo(ctx context.Context, repoPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE repo_path = ?`, repoPath); err != nil {
		return fmt.Errorf("metastore: clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE repo_path = ?`, repoPath); err != nil {
		return fmt.Errorf("metastore: clear files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM repo_meta WHERE repo_path = ?`, repoPath); err != nil {
		return fmt.Errorf("metastore: clear repo_meta: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetFileHashes(ctx context.Context, repoPath string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, content_hash FROM files WHERE repo_path = ?`, repoPath)
	if err != nil {
		return nil, fmt.Errorf("metastore: get file hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var filePath, hash string
		if err := rows.Scan(&filePath, &hash); err != nil {
			return nil, err
		}
		out[filePath] = hash
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertFileHash(ctx context.Context, repoPath, filePath, contentHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (repo_path, file_path, content_hash, last_indexed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (repo_path, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			last_indexed_at = excluded.last_indexed_at
	`, repoPath, filePath, contentHash, nowRFC3339())
	if err != nil {
		return fmt.Errorf("metastore: upsert file hash: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO repo_meta (repo_path, last_indexed_at) VALUES (?, ?)
		ON CONFLICT (repo_path) DO UPDATE SET last_indexed_at = excluded.last_indexed_at
	`, repoPath, nowRFC3339())
	if err != nil {
		return fmt.Errorf("metastore: stamp repo_meta: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteFiles(ctx context.Context, repoPath string, filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, fp := range filePaths {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE repo_path = ? AND file_path = ?`, repoPath, fp); err != nil {
			return fmt.Errorf("metastore: delete file %s: %w", fp, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE repo_path = ? AND file_path = ?`, repoPath, fp); err != nil {
			return fmt.Errorf("metastore: delete chunks for file %s: %w", fp, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetChunkIDsForFile(ctx context.Context, repoPath, filePath string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chunk_id FROM chunks WHERE repo_path = ? AND file_path = ?`, repoPath, filePath)
	if err != nil {
		return nil, fmt.Errorf("metastore: get chunk ids for file: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) DeleteChunksByFile(ctx context.Context, repoPath, filePath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE repo_path = ? AND file_path = ?`, repoPath, filePath)
	if err != nil {
		return fmt.Errorf("metastore: delete chunks by file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteChunksByIDs(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE chunk_id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range chunkIDs {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("metastore: delete chunk %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) UpsertChunks(ctx context.Context, repoPath string, chunks []*chunk.CodeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (
			chunk_id, repo_path, file_path, language, start_line, end_line,
			symbol, symbol_kind, description, text, content_hash, tokens,
			keywords, symbol_terms, structural_terms, intent_tags,
			route_method, route_path, route_intent, route_resource, llm_summary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chunk_id) DO UPDATE SET
			repo_path = excluded.repo_path,
			file_path = excluded.file_path,
			language = excluded.language,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			symbol = excluded.symbol,
			symbol_kind = excluded.symbol_kind,
			description = excluded.description,
			text = excluded.text,
			content_hash = excluded.content_hash,
			tokens = excluded.tokens,
			keywords = excluded.keywords,
			symbol_terms = excluded.symbol_terms,
			structural_terms = excluded.structural_terms,
			intent_tags = excluded.intent_tags,
			route_method = excluded.route_method,
			route_path = excluded.route_path,
			route_intent = excluded.route_intent,
			route_resource = excluded.route_resource,
			llm_summary = excluded.llm_summary
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx,
			c.ChunkID, repoPath, c.FilePath, c.Language, c.StartLine, c.EndLine,
			c.Symbol, c.SymbolKind, c.Description, c.Text, c.ContentHash, c.Tokens,
			encodeSet(c.Keywords), encodeSet(c.SymbolTerms), encodeSet(c.StructuralTerms), encodeSet(c.IntentTags),
			nullableString(c.RouteMethod), nullableString(c.RoutePath), nullableString(c.RouteIntent), nullableString(c.RouteResource),
			nullableString(c.LLMSummary),
		)
		if err != nil {
			return fmt.Errorf("metastore: upsert chunk %s: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetChunksByIDs(ctx context.Context, chunkIDs []string) (map[string]*chunk.CodeChunk, error) {
	out := make(map[string]*chunk.CodeChunk)
	if len(chunkIDs) == 0 {
		return out, nil
	}

	placeholders, args := inClause(chunkIDs)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT chunk_id, repo_path, file_path, language, start_line, end_line,
			symbol, symbol_kind, description, text, content_hash, tokens,
			keywords, symbol_terms, structural_terms, intent_tags,
			route_method, route_path, route_intent, route_resource, llm_summary
		FROM chunks WHERE chunk_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("metastore: get chunks by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c                                                              chunk.CodeChunk
			repoPath                                                       string
			keywords, symbolTerms, structuralTerms, intentTags             string
			routeMethod, routePath, routeIntent, routeResource, llmSummary sql.NullString
		)
		if err := rows.Scan(
			&c.ChunkID, &repoPath, &c.FilePath, &c.Language, &c.StartLine, &c.EndLine,
			&c.Symbol, &c.SymbolKind, &c.Description, &c.Text, &c.ContentHash, &c.Tokens,
			&keywords, &symbolTerms, &structuralTerms, &intentTags,
			&routeMethod, &routePath, &routeIntent, &routeResource, &llmSummary,
		); err != nil {
			return nil, err
		}
		c.RepoPath = repoPath
		c.Keywords = decodeSet(keywords)
		c.SymbolTerms = decodeSet(symbolTerms)
		c.StructuralTerms = decodeSet(structuralTerms)
		c.IntentTags = decodeSet(intentTags)
		c.RouteMethod = routeMethod.String
		c.RoutePath = routePath.String
		c.RouteIntent = routeIntent.String
		c.RouteResource = routeResource.String
		c.LLMSummary = llmSummary.String
		cc := c
		out[cc.ChunkID] = &cc
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCachedEmbeddings(ctx context.Context, keys []string) (map[string]*EmbeddingCacheEntry, error) {
	out := make(map[string]*EmbeddingCacheEntry)
	if len(keys) == 0 {
		return out, nil
	}
	placeholders, args := inClause(keys)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT key, dimension, vector, updated_at FROM embeddings WHERE key IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("metastore: get cached embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key       string
			dimension int
			blob      []byte
			updatedAt string
		)
		if err := rows.Scan(&key, &dimension, &blob, &updatedAt); err != nil {
			return nil, err
		}
		t, _ := time.Parse(time.RFC3339, updatedAt)
		out[key] = &EmbeddingCacheEntry{
			Key:       key,
			Dimension: dimension,
			Vector:    decodeFloat32s(blob),
			UpdatedAt: t,
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertCachedEmbeddings(ctx context.Context, entries []*EmbeddingCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (key, dimension, vector, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET dimension = excluded.dimension, vector = excluded.vector, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Key, e.Dimension, encodeFloat32s(e.Vector), nowRFC3339()); err != nil {
			return fmt.Errorf("metastore: upsert cached embedding %s: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetCachedChunkSummaries(ctx context.Context, keys []string) (map[string]*SummaryCacheEntry, error) {
	out := make(map[string]*SummaryCacheEntry)
	if len(keys) == 0 {
		return out, nil
	}
	placeholders, args := inClause(keys)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT summary_key, model_name, summary, updated_at FROM summaries WHERE summary_key IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("metastore: get cached summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e SummaryCacheEntry
		var updatedAt string
		if err := rows.Scan(&e.SummaryKey, &e.ModelName, &e.Summary, &updatedAt); err != nil {
			return nil, err
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out[e.SummaryKey] = &e
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertCachedChunkSummaries(ctx context.Context, entries []*SummaryCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO summaries (summary_key, model_name, summary, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (summary_key) DO UPDATE SET model_name = excluded.model_name, summary = excluded.summary, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.SummaryKey, e.ModelName, e.Summary, nowRFC3339()); err != nil {
			return fmt.Errorf("metastore: upsert cached summary %s: %w", e.SummaryKey, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetStatus(ctx context.Context, repoPath string) (*Status, error) {
	status := &Status{}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE repo_path = ?`, repoPath)
	if err := row.Scan(&status.IndexedFiles); err != nil {
		return nil, fmt.Errorf("metastore: count files: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE repo_path = ?`, repoPath)
	if err := row.Scan(&status.IndexedChunks); err != nil {
		return nil, fmt.Errorf("metastore: count chunks: %w", err)
	}

	var lastIndexed sql.NullString
	row = s.db.QueryRowContext(ctx, `SELECT last_indexed_at FROM repo_meta WHERE repo_path = ?`, repoPath)
	if err := row.Scan(&lastIndexed); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("metastore: get last_indexed_at: %w", err)
	}
	if lastIndexed.Valid {
		if t, err := time.Parse(time.RFC3339, lastIndexed.String); err == nil {
			status.LastIndexedAt = &t
		}
	}
	return status, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func inClause(values []string) (string, []any) {
	placeholders := make([]byte, 0, len(values)*2)
	args := make([]any, len(values))
	for i, v := range values {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = v
	}
	return string(placeholders), args
}

func encodeFloat32s(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(buf []byte) []float32 {
	n := len(buf) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
