package parser

import (
	"fmt"
	"slices"
	"strings"
)

// Config controls how translation units are read.
type Config struct {
	// WorkingDirectory anchors relative paths. Empty means the process
	// working directory.
	WorkingDirectory string
	IncludePaths     []string
	// DefineSymbols are "NAME" or "NAME=VALUE" entries.
	DefineSymbols   []string
	UndefineSymbols []string
	// StartWithDeclarations, when non-empty, keeps only the named
	// declarations together with their enclosing and nested declarations.
	StartWithDeclarations []string
	Verbose               bool
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.IncludePaths = slices.Clone(c.IncludePaths)
	c.DefineSymbols = slices.Clone(c.DefineSymbols)
	c.UndefineSymbols = slices.Clone(c.UndefineSymbols)
	c.StartWithDeclarations = slices.Clone(c.StartWithDeclarations)
	return c
}

// Fingerprint renders every setting that changes the result of a read.
func (c Config) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "wd=%s\n", c.WorkingDirectory)
	fmt.Fprintf(&b, "inc=%s\n", strings.Join(c.IncludePaths, "\x00"))
	fmt.Fprintf(&b, "def=%s\n", strings.Join(c.DefineSymbols, "\x00"))
	fmt.Fprintf(&b, "undef=%s\n", strings.Join(c.UndefineSymbols, "\x00"))
	fmt.Fprintf(&b, "start=%s\n", strings.Join(c.StartWithDeclarations, "\x00"))
	return b.String()
}

// defines returns the initial symbol set of a translation unit.
func (c Config) defines() map[string]bool {
	set := make(map[string]bool, len(c.DefineSymbols))
	for _, d := range c.DefineSymbols {
		name, _, _ := strings.Cut(d, "=")
		set[strings.TrimSpace(name)] = true
	}
	for _, u := range c.UndefineSymbols {
		delete(set, strings.TrimSpace(u))
	}
	return set
}

// ContentType says how FileConfig.Data is interpreted.
type ContentType int

const (
	// SourceFile means Data is a path.
	SourceFile ContentType = iota
	// Text means Data is the source itself.
	Text
)

func (t ContentType) String() string {
	switch t {
	case SourceFile:
		return "source_file"
	case Text:
		return "text"
	}
	return fmt.Sprintf("ContentType(%d)", int(t))
}

// TextName is the file name recorded for declarations read from Text.
const TextName = "<text>"

// FileConfig is one translation unit to read.
type FileConfig struct {
	Data    string
	Content ContentType
	// StartWithDeclarations overrides Config.StartWithDeclarations when set.
	StartWithDeclarations []string
}

// NewSourceFile returns a FileConfig reading path.
func NewSourceFile(path string, startWith ...string) FileConfig {
	return FileConfig{Data: path, Content: SourceFile, StartWithDeclarations: startWith}
}

// NewText returns a FileConfig reading src.
func NewText(src string, startWith ...string) FileConfig {
	return FileConfig{Data: src, Content: Text, StartWithDeclarations: startWith}
}

func (f FileConfig) String() string {
	if f.Content == Text {
		return TextName
	}
	return f.Data
}

// OSFileNames wraps every path as a source file config.
func OSFileNames(paths ...string) []FileConfig {
	out := make([]FileConfig, len(paths))
	for i, p := range paths {
		out[i] = NewSourceFile(p)
	}
	return out
}

// CompilationMode selects how a set of files becomes translation units.
type CompilationMode int

const (
	// FileByFile reads every file as its own unit and merges the results.
	FileByFile CompilationMode = iota
	// AllAtOnce reads one synthetic unit that includes every file.
	AllAtOnce
)

func (m CompilationMode) String() string {
	switch m {
	case FileByFile:
		return "file_by_file"
	case AllAtOnce:
		return "all_at_once"
	}
	return fmt.Sprintf("CompilationMode(%d)", int(m))
}

// ParseCompilationMode accepts the String forms. Empty means FileByFile.
func ParseCompilationMode(s string) (CompilationMode, error) {
	switch s {
	case "", "file_by_file":
		return FileByFile, nil
	case "all_at_once":
		return AllAtOnce, nil
	}
	return FileByFile, fmt.Errorf("parser: unknown compilation mode %q", s)
}

// AllAtOnceText builds the synthetic unit text that includes every path.
func AllAtOnceText(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "#include \"%s\"\n", p)
	}
	return b.String()
}
