package scanner

// languageByExtension is the extension -> language map (spec §4.8 step 1).
var languageByExtension = map[string]string{
	".py":  "python",
	".js":  "javascript",
	".jsx": "javascript",
	".ts":  "typescript",
	".tsx": "tsx",
}

// DetectLanguage returns the indexable language for a file extension, or
// "" if the file is not one of the supported languages.
func DetectLanguage(ext string) string {
	return languageByExtension[ext]
}

// ignoredDirs are hardcoded directory-name ignores, in addition to any
// dotfile directory and anything matched by the repo's .gitignore.
var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"__pycache__":  {},
	".xtrc":        {},
}

// ignoredFiles are hardcoded file-name ignores, in addition to any
// dotfile.
var ignoredFiles = map[string]struct{}{
	".DS_Store": {},
}

// File is one discovered, indexable file.
type File struct {
	Path     string // relative to repo root, POSIX-separated
	AbsPath  string
	Language string
}

// Result is one item streamed off the Scan channel. Scan sets only File:
// it skips entries it cannot read, so Err is never set by Scan.
type Result struct {
	File *File
	Err  error
}
