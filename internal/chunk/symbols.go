package chunk

import (
	"regexp"
	"sort"
	"strings"
)

// handlerNamePattern matches symbol names that look like request handlers
// or callbacks, per the §4.3 function/handler distinction.
var handlerNamePattern = regexp.MustCompile(`(?i)(handler|callback)`)

// routeCallPattern matches `(router|app)?.METHOD(` call expressions used to
// detect route registrations in both Python and JS/TS source.
var routeCallPattern = regexp.MustCompile(`(?i)(?:router|app)?\.?(get|post|put|delete|patch)\s*\(`)

// routeStringArgPattern matches the `'/path'` first argument of a route
// call.
var routeStringArgPattern = regexp.MustCompile(`\(\s*['"](/[^'"]*)['"]`)

// Extractor walks a parsed Tree and produces deduplicated, sorted
// SymbolBlocks per §4.3.
type Extractor struct {
	registry *LanguageRegistry
}

// NewExtractor builds an extractor bound to the default registry.
func NewExtractor() *Extractor {
	return &Extractor{registry: DefaultRegistry()}
}

// Extract walks tree and returns the symbols for its language.
func (e *Extractor) Extract(tree *Tree) []*SymbolBlock {
	cfg, ok := e.registry.GetByName(tree.Language)
	if !ok {
		return nil
	}

	var drafts []*SymbolBlock
	if tree.Language == "python" {
		drafts = e.extractPython(tree, cfg)
	} else {
		drafts = e.extractJSLike(tree, cfg)
	}

	drafts = append(drafts, e.majorBlocks(tree, drafts)...)

	return dedupeAndSort(drafts)
}

func (e *Extractor) extractPython(tree *Tree, cfg *LanguageConfig) []*SymbolBlock {
	var out []*SymbolBlock
	source := tree.Source

	tree.Root.Walk(func(n *Node) bool {
		switch n.Type {
		case "function_definition", "async_function_definition":
			name := identifierChild(n, source)
			out = append(out, &SymbolBlock{
				Kind:      classifyFunctionKind(name),
				Name:      name,
				StartLine: n.StartLine(),
				EndLine:   n.EndLine(),
				Text:      n.Content(source),
			})
		case "class_definition":
			out = append(out, &SymbolBlock{
				Kind:      KindClass,
				Name:      identifierChild(n, source),
				StartLine: n.StartLine(),
				EndLine:   n.EndLine(),
				Text:      n.Content(source),
			})
		case "decorated_definition":
			text := n.Content(source)
			if routeCallPattern.MatchString(text) || strings.Contains(text, "@app") {
				fnName := ""
				for _, c := range n.Children {
					if c.Type == "function_definition" || c.Type == "async_function_definition" {
						fnName = identifierChild(c, source)
					}
				}
				out = append(out, &SymbolBlock{
					Kind:      KindRoute,
					Name:      fnName,
					StartLine: n.StartLine(),
					EndLine:   n.EndLine(),
					Text:      text,
				})
			}
		case "call":
			text := n.Content(source)
			if routeCallPattern.MatchString(text) && routeStringArgPattern.MatchString(text) {
				out = append(out, &SymbolBlock{
					Kind:      KindRoute,
					Name:      routeName(text),
					StartLine: n.StartLine(),
					EndLine:   n.EndLine(),
					Text:      text,
				})
			}
		}
		return true
	})

	return out
}

func (e *Extractor) extractJSLike(tree *Tree, cfg *LanguageConfig) []*SymbolBlock {
	var out []*SymbolBlock
	source := tree.Source

	tree.Root.Walk(func(n *Node) bool {
		switch n.Type {
		case "function_declaration", "generator_function_declaration", "method_definition":
			name := identifierChild(n, source)
			out = append(out, &SymbolBlock{
				Kind:      classifyFunctionKind(name),
				Name:      name,
				StartLine: n.StartLine(),
				EndLine:   n.EndLine(),
				Text:      n.Content(source),
			})
		case "class_declaration":
			out = append(out, &SymbolBlock{
				Kind:      KindClass,
				Name:      identifierChild(n, source),
				StartLine: n.StartLine(),
				EndLine:   n.EndLine(),
				Text:      n.Content(source),
			})
		case "variable_declarator":
			value := lastChild(n)
			if value != nil && (strings.Contains(value.Type, "arrow_function") || strings.Contains(value.Type, "function")) {
				name := identifierChild(n, source)
				out = append(out, &SymbolBlock{
					Kind:      classifyFunctionKind(name),
					Name:      name,
					StartLine: n.StartLine(),
					EndLine:   n.EndLine(),
					Text:      n.Content(source),
				})
			}
		case "call_expression":
			text := n.Content(source)
			if routeCallPattern.MatchString(text) && routeStringArgPattern.MatchString(text) {
				out = append(out, &SymbolBlock{
					Kind:      KindRoute,
					Name:      routeName(text),
					StartLine: n.StartLine(),
					EndLine:   n.EndLine(),
					Text:      text,
				})
			}
		}
		return true
	})

	return out
}

// routeName builds the "METHOD /path" name for a route symbol.
func routeName(text string) string {
	method := ""
	if m := routeCallPattern.FindStringSubmatch(text); m != nil {
		method = strings.ToUpper(m[1])
	}
	path := ""
	if m := routeStringArgPattern.FindStringSubmatch(text); m != nil {
		path = m[1]
	}
	if method == "" && path == "" {
		return ""
	}
	return strings.TrimSpace(method + " " + path)
}

func classifyFunctionKind(name string) string {
	if handlerNamePattern.MatchString(name) {
		return KindHandler
	}
	return KindFunction
}

// identifierChild finds the node's name identifier: the first direct
// identifier, property_identifier or type_identifier child, or "" when
// the node has none.
func identifierChild(n *Node, source []byte) string {
	for _, c := range n.Children {
		if c.Type == "identifier" || c.Type == "property_identifier" || c.Type == "type_identifier" {
			return c.Content(source)
		}
	}
	return ""
}

func lastChild(n *Node) *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// statementNoise are top-level node types ineligible for major_block
// promotion (imports, bare expressions, variable statements).
var statementNoise = map[string]struct{}{
	"import_statement":          {},
	"import_from_statement":     {},
	"future_import_statement":   {},
	"expression_statement":      {},
	"lexical_declaration":       {},
	"variable_declaration":      {},
	"assignment":                {},
	"comment":                   {},
}

const majorBlockMinLines = 15

// majorBlocks finds top-level named children spanning at least
// majorBlockMinLines lines that are not statement noise and are not
// already contained within an emitted symbol.
func (e *Extractor) majorBlocks(tree *Tree, existing []*SymbolBlock) []*SymbolBlock {
	var out []*SymbolBlock
	for _, child := range tree.Root.Children {
		if _, noise := statementNoise[child.Type]; noise {
			continue
		}
		start, end := child.StartLine(), child.EndLine()
		if end-start+1 < majorBlockMinLines {
			continue
		}
		if containedInAny(start, end, existing) {
			continue
		}
		out = append(out, &SymbolBlock{
			Kind:      KindMajorBlock,
			StartLine: start,
			EndLine:   end,
			Text:      child.Content(tree.Source),
		})
	}
	return out
}

func containedInAny(start, end int, blocks []*SymbolBlock) bool {
	for _, b := range blocks {
		if b.StartLine <= start && end <= b.EndLine {
			return true
		}
	}
	return false
}

func dedupeAndSort(drafts []*SymbolBlock) []*SymbolBlock {
	type key struct {
		kind       string
		name       string
		start, end int
	}
	seen := make(map[key]struct{}, len(drafts))
	out := make([]*SymbolBlock, 0, len(drafts))
	for _, d := range drafts {
		k := key{d.Kind, d.Name, d.StartLine, d.EndLine}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func less(a, b *SymbolBlock) bool {
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	if a.EndLine != b.EndLine {
		return a.EndLine < b.EndLine
	}
	return a.Kind < b.Kind
}
