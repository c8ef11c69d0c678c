package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CodeChunk is the unit of retrieval (spec §3).
type CodeChunk struct {
	ChunkID     string
	RepoPath    string
	FilePath    string // relative, POSIX-separated
	Language    string
	StartLine   int
	EndLine     int
	Symbol      string
	SymbolKind  string
	Description string
	Text        string
	ContentHash string // file-level sha256
	Tokens      int

	Keywords        []string
	SymbolTerms     []string
	StructuralTerms []string
	IntentTags      []string

	RouteMethod   string
	RoutePath     string
	RouteIntent   string
	RouteResource string

	LLMSummary string
}

// ComputeChunkID returns the sha256 hex digest of "{file_path}|{start}|{end}|{text}",
// the chunk's stable, content-addressable identity (spec §3, §8).
func ComputeChunkID(filePath string, start, end int, text string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s", filePath, start, end, text)))
	return hex.EncodeToString(h[:])
}
