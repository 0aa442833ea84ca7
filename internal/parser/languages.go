package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// extToLanguage maps file extensions to the language they are read as.
// C headers are read with the C++ grammar, which accepts them.
var extToLanguage = map[string]string{
	".h":   "cpp",
	".hh":  "cpp",
	".hpp": "cpp",
	".hxx": "cpp",
	".h++": "cpp",
	".inl": "cpp",
	".c":   "cpp",
	".cc":  "cpp",
	".cpp": "cpp",
	".cxx": "cpp",
	".c++": "cpp",
}

var headerExts = map[string]bool{
	".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".h++": true, ".inl": true,
}

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

// Grammar returns the tree-sitter C++ language, loaded once.
func Grammar() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = cpp.GetLanguage()
	})
	return grammar
}

// LanguageForFile returns the language name for a path based on its
// extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// IsHeader reports whether path looks like a C or C++ header.
func IsHeader(path string) bool {
	return headerExts[strings.ToLower(filepath.Ext(path))]
}
