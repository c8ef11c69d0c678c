package chunk

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageRegistry maps file extensions and language names to grammars and
// their node-type vocabularies. Supports the spec's minimum language set:
// Python, JavaScript, TypeScript, TSX.
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry builds a registry with the default grammars.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerPython()
	r.registerJavaScript()
	r.registerTypeScript()
	return r
}

func (r *LanguageRegistry) register(cfg *LanguageConfig, lang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Name] = cfg
	r.tsLanguages[cfg.Name] = lang
	for _, ext := range cfg.Extensions {
		r.extToLang[ext] = cfg.Name
	}
}

func (r *LanguageRegistry) registerPython() {
	r.register(&LanguageConfig{
		Name:           "python",
		Extensions:     []string{".py"},
		FunctionTypes:  []string{"function_definition"},
		ClassTypes:     []string{"class_definition"},
		DeclaratorType: "assignment",
		CallType:       "call",
		NameField:      "name",
	}, python.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	cfg := &LanguageConfig{
		Name:           "javascript",
		Extensions:     []string{".js", ".jsx", ".mjs"},
		FunctionTypes:  []string{"function_declaration", "generator_function_declaration"},
		ClassTypes:     []string{"class_declaration"},
		MethodTypes:    []string{"method_definition"},
		DeclaratorType: "variable_declarator",
		CallType:       "call_expression",
		NameField:      "name",
	}
	r.register(cfg, javascript.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	cfg := &LanguageConfig{
		Name:           "typescript",
		Extensions:     []string{".ts"},
		FunctionTypes:  []string{"function_declaration", "generator_function_declaration"},
		ClassTypes:     []string{"class_declaration"},
		MethodTypes:    []string{"method_definition"},
		DeclaratorType: "variable_declarator",
		CallType:       "call_expression",
		NameField:      "name",
	}
	r.register(cfg, typescript.GetLanguage())

	tsxCfg := *cfg
	tsxCfg.Name = "tsx"
	tsxCfg.Extensions = []string{".tsx"}
	r.register(&tsxCfg, tsx.GetLanguage())
}

// GetByExtension resolves a language config from a file extension (with or
// without the leading dot).
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

// GetByName resolves a language config by its registered name.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// GetTreeSitterLanguage returns the grammar registered under name.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the process-global language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
