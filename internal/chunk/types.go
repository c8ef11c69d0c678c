// Package chunk implements the symbol parser and chunk builder: tree-sitter
// backed extraction of syntactic symbols, and the token-bounded chunk
// assembly that turns (content, symbols) into retrieval units.
package chunk

// SymbolBlock is an extracted syntactic unit: a function, class, route
// handler, or catch-all major block of source.
type SymbolBlock struct {
	Kind      string // function | class | handler | route | major_block
	Name      string
	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive
	Text      string
}

// Kind constants for SymbolBlock.Kind.
const (
	KindFunction   = "function"
	KindClass      = "class"
	KindHandler    = "handler"
	KindRoute      = "route"
	KindMajorBlock = "major_block"
)

// Point is a 0-indexed row/column position in source.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is a language-agnostic view of a tree-sitter AST node.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Tree is a parsed file.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// LanguageConfig describes the node-type vocabulary of one tree-sitter
// grammar, used by the symbol extractor to tell a function from a class.
type LanguageConfig struct {
	Name       string
	Extensions []string

	FunctionTypes  []string
	ClassTypes     []string
	MethodTypes    []string
	DeclaratorType string // variable_declarator-equivalent, for arrow-function handlers
	CallType       string // call_expression / call, for route-call detection
	NameField      string
}
