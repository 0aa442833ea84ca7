// Package parser reads C++ headers into per-unit declaration forests.
//
// It is a declaration extractor built on the tree-sitter C++ grammar, not a
// compiler. Quoted includes and #ifdef/#ifndef/#if blocks are followed;
// macros are never expanded and templates are skipped.
package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/cppdecl/internal/decl"
)

// Result is one translation unit read from disk or text.
type Result struct {
	Forest *decl.Forest
	// Files lists every file the unit read, the main file first.
	Files []string
}

// Reader turns FileConfigs into forests. A Reader is safe for concurrent
// use; every read gets its own tree-sitter parser.
type Reader struct {
	cfg    Config
	logger *log.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderLogger sets the logger for warnings and verbose output.
func WithReaderLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = l
	}
}

func NewReader(cfg Config, opts ...ReaderOption) *Reader {
	r := &Reader{cfg: cfg.Clone(), logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns a copy of the reader configuration.
func (r *Reader) Config() Config { return r.cfg.Clone() }

// ReadFile reads the translation unit rooted at path.
func (r *Reader) ReadFile(ctx context.Context, path string) (*decl.Forest, error) {
	res, err := r.Read(ctx, NewSourceFile(path))
	if err != nil {
		return nil, err
	}
	return res.Forest, nil
}

// ReadString reads src as a translation unit.
func (r *Reader) ReadString(ctx context.Context, src string) (*decl.Forest, error) {
	res, err := r.Read(ctx, NewText(src))
	if err != nil {
		return nil, err
	}
	return res.Forest, nil
}

// Read reads one translation unit. The forest has a single root, the
// global namespace.
func (r *Reader) Read(ctx context.Context, fc FileConfig) (*Result, error) {
	u := r.newUnit()
	defer u.parser.Close()

	var err error
	switch fc.Content {
	case SourceFile:
		path := r.absPath(fc.Data)
		if r.cfg.Verbose {
			r.logger.Printf("Reading %s ...", path)
		}
		err = u.readFile(ctx, path, u.global)
	case Text:
		err = u.readSource(ctx, TextName, r.workDir(), []byte(fc.Data), u.global)
	default:
		err = fmt.Errorf("unsupported content type %s", fc.Content)
	}
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", fc, err)
	}

	u.completeForwardDeclarations()
	forest := decl.NewForest(u.global)

	startWith := r.cfg.StartWithDeclarations
	if len(fc.StartWithDeclarations) > 0 {
		startWith = fc.StartWithDeclarations
	}
	if len(startWith) > 0 {
		keepOnly(u.global, startWith)
	}
	return &Result{Forest: forest, Files: u.files}, nil
}

func (r *Reader) workDir() string {
	if r.cfg.WorkingDirectory != "" {
		return r.cfg.WorkingDirectory
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (r *Reader) absPath(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.workDir(), p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// unit is the state of one translation unit being read.
type unit struct {
	r        *Reader
	parser   *sitter.Parser
	global   *decl.Namespace
	defines  map[string]bool
	included map[string]bool
	files    []string
}

func (r *Reader) newUnit() *unit {
	p := sitter.NewParser()
	p.SetLanguage(Grammar())
	return &unit{
		r:        r,
		parser:   p,
		global:   decl.NewGlobalNamespace(),
		defines:  r.cfg.defines(),
		included: make(map[string]bool),
	}
}

func (u *unit) readFile(ctx context.Context, path string, scope decl.Scope) error {
	if u.included[path] {
		return nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return u.readSource(ctx, path, filepath.Dir(path), src, scope)
}

func (u *unit) readSource(ctx context.Context, name, dir string, src []byte, scope decl.Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.included[name] = true
	u.files = append(u.files, name)

	tree, err := u.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	defer tree.Close()

	f := &file{unit: u, path: name, dir: dir, src: src}
	return f.items(ctx, tree.RootNode(), scope, decl.AccessNone)
}

// resolveInclude finds the file named by an #include directive.
func (u *unit) resolveInclude(target, fromDir string, quoted bool) (string, bool) {
	if filepath.IsAbs(target) {
		return filepath.Clean(target), fileExists(target)
	}
	var dirs []string
	if quoted {
		dirs = append(dirs, fromDir, u.r.workDir())
	}
	for _, inc := range u.r.cfg.IncludePaths {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(u.r.workDir(), inc)
		}
		dirs = append(dirs, inc)
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, target)
		if fileExists(candidate) {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs, true
			}
			return filepath.Clean(candidate), true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// file is the state of one source file inside a unit.
type file struct {
	*unit
	path string
	dir  string
	src  []byte
}

func (f *file) text(n *sitter.Node) string {
	return n.Content(f.src)
}

func (f *file) location(n *sitter.Node) decl.Location {
	return decl.Location{File: f.path, Line: int(n.StartPoint().Row) + 1}
}

func (f *file) include(ctx context.Context, n *sitter.Node, scope decl.Scope) error {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	raw := f.text(pathNode)
	quoted := strings.HasPrefix(raw, `"`)
	target := strings.Trim(raw, `"<>`)

	resolved, ok := f.resolveInclude(target, f.dir, quoted)
	if !ok {
		if quoted {
			f.r.logger.Printf("warning: %s:%d: include %q not found", f.path, n.StartPoint().Row+1, target)
		}
		return nil
	}
	if f.r.cfg.Verbose && !f.included[resolved] {
		f.r.logger.Printf("Including %s ...", resolved)
	}
	if err := f.readFile(ctx, resolved, scope); err != nil {
		return fmt.Errorf("include %s: %w", target, err)
	}
	return nil
}
