package chunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ainav/ainav/internal/intent"
	"github.com/ainav/ainav/internal/normalize"
)

// BuilderConfig bounds the chunk builder's split/merge passes (spec §4.4).
type BuilderConfig struct {
	MinTokens    int
	MaxTokens    int
	TargetTokens int
}

// DefaultBuilderConfig matches the spec's defaults of (200, 800, 500).
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{MinTokens: 200, MaxTokens: 800, TargetTokens: 500}
}

// Builder turns (content, symbols) into bounded CodeChunks.
type Builder struct {
	config    BuilderConfig
	parser    *Parser
	extractor *Extractor
}

// NewBuilder constructs a Builder with the given bounds.
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{config: cfg, parser: NewParser(), extractor: NewExtractor()}
}

// draft is an in-progress chunk before finalization.
type draft struct {
	start, end int
	name       string
	kind       string
	text       string
}

func (d draft) tokens() int { return normalize.EstimateTokens(d.text) }

// Build runs the full pipeline: parse -> extract symbols -> initial drafts
// -> split pass -> merge pass -> per-chunk finalization. filePath must be
// relative and POSIX-separated per the CodeChunk invariant.
func (b *Builder) Build(ctx context.Context, filePath, language string, content []byte) ([]*CodeChunk, error) {
	lines := splitLines(string(content))
	contentHash := hashContent(content)

	var drafts []draft
	tree, err := b.parser.Parse(ctx, content, language)
	if err == nil {
		symbols := b.extractor.Extract(tree)
		if len(symbols) > 0 {
			for _, s := range symbols {
				drafts = append(drafts, draft{
					start: s.StartLine,
					end:   s.EndLine,
					name:  s.Name,
					kind:  s.Kind,
					text:  s.Text,
				})
			}
		}
	}

	if len(drafts) == 0 {
		whole := draft{start: 1, end: len(lines), kind: KindMajorBlock, text: string(content)}
		if whole.tokens() <= b.config.MaxTokens {
			drafts = []draft{whole}
		} else {
			drafts = b.splitByLines(lines, 1, len(lines), "", "")
		}
	}

	drafts = b.splitPass(drafts, lines)
	drafts = b.mergePass(drafts)

	chunks := make([]*CodeChunk, 0, len(drafts))
	for _, d := range drafts {
		chunks = append(chunks, b.finalize(filePath, language, contentHash, d))
	}
	return chunks, nil
}

// splitPass re-slices any draft over MaxTokens by walking its lines,
// emitting a block once it meets MinTokens and the next line would exceed
// TargetTokens, and always flushing at MaxTokens.
func (b *Builder) splitPass(drafts []draft, fileLines []string) []draft {
	var out []draft
	for _, d := range drafts {
		if d.tokens() <= b.config.MaxTokens {
			out = append(out, d)
			continue
		}
		lines := splitLines(d.text)
		out = append(out, b.splitByLinesPreserving(lines, d.start, d.name, d.kind)...)
	}
	return out
}

func (b *Builder) splitByLinesPreserving(lines []string, startLine int, name, kind string) []draft {
	var out []draft
	var current []string
	blockStart := startLine

	flush := func(endLine int) {
		if len(current) == 0 {
			return
		}
		out = append(out, draft{
			start: blockStart,
			end:   endLine,
			name:  name,
			kind:  kind,
			text:  strings.Join(current, "\n"),
		})
		current = nil
	}

	for i, line := range lines {
		lineNo := startLine + i
		projected := append(append([]string{}, current...), line)
		projectedTokens := normalize.EstimateTokens(strings.Join(projected, "\n"))
		currentTokens := normalize.EstimateTokens(strings.Join(current, "\n"))

		if len(current) > 0 && projectedTokens > b.config.TargetTokens && currentTokens >= b.config.MinTokens {
			flush(lineNo - 1)
			blockStart = lineNo
			current = []string{line}
		} else {
			current = append(current, line)
		}

		if normalize.EstimateTokens(strings.Join(current, "\n")) >= b.config.MaxTokens {
			flush(lineNo)
			blockStart = lineNo + 1
			current = nil
		}
	}
	flush(startLine + len(lines) - 1)
	return out
}

// splitByLines handles the unsupported-language / parse-failure fallback:
// the whole file is sliced by the same line-splitter with no symbol name.
func (b *Builder) splitByLines(lines []string, start, end int, name, kind string) []draft {
	if kind == "" {
		kind = KindMajorBlock
	}
	return b.splitByLinesPreserving(lines, start, name, kind)
}

const mergeMaxGapLines = 40

// mergePass sorts by start_line, keeps drafts at/above MinTokens as-is, and
// accumulates smaller drafts into buffers that flush when they would
// exceed MaxTokens or the gap to the next draft exceeds 40 lines.
func (b *Builder) mergePass(drafts []draft) []draft {
	sorted := append([]draft{}, drafts...)
	sortDrafts(sorted)

	var out []draft
	var buffer []draft

	flushBuffer := func() {
		if len(buffer) == 0 {
			return
		}
		if len(buffer) == 1 {
			out = append(out, buffer[0])
		} else {
			texts := make([]string, len(buffer))
			for i, d := range buffer {
				texts[i] = d.text
			}
			out = append(out, draft{
				start: buffer[0].start,
				end:   buffer[len(buffer)-1].end,
				kind:  KindMajorBlock,
				text:  strings.Join(texts, "\n\n"),
			})
		}
		buffer = nil
	}

	for _, d := range sorted {
		if d.tokens() >= b.config.MinTokens {
			flushBuffer()
			out = append(out, d)
			continue
		}

		if len(buffer) == 0 {
			buffer = append(buffer, d)
			continue
		}

		last := buffer[len(buffer)-1]
		gap := d.start - last.end
		combinedText := make([]string, 0, len(buffer)+1)
		for _, bd := range buffer {
			combinedText = append(combinedText, bd.text)
		}
		combinedText = append(combinedText, d.text)
		combinedTokens := normalize.EstimateTokens(strings.Join(combinedText, "\n\n"))

		if combinedTokens <= b.config.MaxTokens && gap <= mergeMaxGapLines {
			buffer = append(buffer, d)
		} else {
			flushBuffer()
			buffer = append(buffer, d)
		}
	}
	flushBuffer()

	if len(out) >= 2 {
		last := out[len(out)-1]
		if last.tokens() < b.config.MinTokens {
			prev := out[len(out)-2]
			combined := prev.text + "\n\n" + last.text
			if normalize.EstimateTokens(combined) <= b.config.MaxTokens {
				merged := draft{
					start: prev.start,
					end:   last.end,
					kind:  prev.kind,
					name:  prev.name,
					text:  combined,
				}
				out = out[:len(out)-2]
				out = append(out, merged)
			}
		}
	}

	return out
}

func sortDrafts(d []draft) {
	sort.Slice(d, func(i, j int) bool { return d[i].start < d[j].start })
}

var descriptionLabels = map[string]string{
	KindClass:      "class",
	KindRoute:      "route handler",
	KindHandler:    "handler",
	KindFunction:   "function",
	KindMajorBlock: "major code block",
}

// finalize derives description, keywords, symbol/structural terms, intent
// tags, route fields, and the content-addressable chunk id for one draft.
func (b *Builder) finalize(filePath, language, contentHash string, d draft) *CodeChunk {
	sig := intent.ExtractRouteSignal(d.text, d.name)
	tags := intent.ExtractIntentMetadata(filePath, d.kind, d.name, d.text)

	desc := describeChunk(filePath, d, sig)

	structural := normalize.Set(intentStructuralTerms(sig))
	symbolTerms := normalize.Set(normalize.NormalizeTerms(d.name), structural)

	keywordSource := desc
	if len(d.text) > 4000 {
		keywordSource += "\n" + d.text[:4000]
	} else {
		keywordSource += "\n" + d.text
	}
	if sig != nil {
		keywordSource += "\n" + routeContextBlock(sig)
	}
	keywords := normalize.Set(normalize.NormalizeTerms(keywordSource))

	c := &CodeChunk{
		FilePath:        filePath,
		Language:        language,
		StartLine:       d.start,
		EndLine:         d.end,
		Symbol:          d.name,
		SymbolKind:      d.kind,
		Description:     desc,
		Text:            d.text,
		ContentHash:     contentHash,
		Tokens:          normalize.EstimateTokens(d.text),
		Keywords:        keywords,
		SymbolTerms:     symbolTerms,
		StructuralTerms: structural,
		IntentTags:      tags,
	}
	if sig != nil {
		c.RouteMethod = sig.Method
		c.RoutePath = sig.Path
		c.RouteIntent = sig.Intent
		c.RouteResource = sig.Resource
	}
	c.ChunkID = ComputeChunkID(filePath, d.start, d.end, d.text)
	return c
}

func intentStructuralTerms(sig *intent.Signal) []string {
	if sig == nil {
		return nil
	}
	return sig.StructuralTerms
}

func routeContextBlock(sig *intent.Signal) string {
	return "Method: " + sig.Method + " Route: " + sig.Path + " Resource: " + sig.Resource
}

func describeChunk(filePath string, d draft, sig *intent.Signal) string {
	label := descriptionLabels[d.kind]
	if label == "" {
		label = "major code block"
	}
	firstLine := firstStrippedLine(d.text)
	desc := filePath + ": " + label
	if firstLine != "" {
		desc += " - " + firstLine
	}
	if sig != nil {
		desc += " (" + sig.Intent + " " + sig.Method + " " + sig.Path
		if sig.Resource != "" {
			desc += " " + sig.Resource
		}
		desc += ")"
	}
	return desc
}

func firstStrippedLine(text string) string {
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if len(trimmed) > 120 {
				trimmed = trimmed[:120]
			}
			return trimmed
		}
	}
	return ""
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
