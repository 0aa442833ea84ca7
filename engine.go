package cppdecl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/cppdecl/internal/cache"
	"github.com/jward/cppdecl/internal/merge"
	"github.com/jward/cppdecl/internal/parser"
	"github.com/jward/cppdecl/internal/store"
)

// ErrNoStore is returned by operations that need a database when the Engine
// was created without one.
var ErrNoStore = errors.New("cppdecl: engine has no database")

// Metadata keys written by Index.
const (
	MetaConfigFingerprint = "config_fingerprint"
	MetaCompilationMode   = "compilation_mode"
	MetaIndexedAt         = "indexed_at"
)

// Engine reads C++ headers, merges the per-unit declaration forests and
// optionally persists the result.
type Engine struct {
	store  *store.Store
	cache  *cache.ForestCache
	logger *log.Logger

	cfg         parser.Config
	mode        parser.CompilationMode
	policy      merge.UnresolvedPolicy
	binder      merge.TypedefBinder
	binderSet   bool
	parallelism int
	cacheSize   int
	verbose     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for warnings and progress output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig sets the header reader configuration.
func WithConfig(cfg parser.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg.Clone()
	}
}

// WithCompilationMode selects file-by-file or all-at-once reading.
func WithCompilationMode(m parser.CompilationMode) Option {
	return func(e *Engine) {
		e.mode = m
	}
}

// WithUnresolvedPolicy sets the reaction to class references that cannot be
// mapped onto a canonical class.
func WithUnresolvedPolicy(p merge.UnresolvedPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTypedefBinder replaces the default typedef binder. A nil binder
// disables typedef binding.
func WithTypedefBinder(b merge.TypedefBinder) Option {
	return func(e *Engine) {
		e.binder = b
		e.binderSet = true
	}
}

// WithParallelism bounds the number of units read concurrently. Values
// below one mean one per CPU.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithCacheSize sets the number of units kept in the parse cache. A
// negative size disables caching.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithVerbose logs reader and merge progress.
func WithVerbose(v bool) Option {
	return func(e *Engine) {
		e.verbose = v
	}
}

// New creates an Engine. When dbPath is non-empty a SQLite database is
// opened and migrated there; an empty dbPath gives an in-memory engine that
// can read and merge but not Index or Query.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: log.New(os.Stderr, "cppdecl: ", 0),
		policy: merge.PolicyWarn,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.verbose {
		e.cfg.Verbose = true
	}

	if e.cacheSize >= 0 {
		c, err := cache.New(e.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("cppdecl: create cache: %w", err)
		}
		e.cache = c
	}

	if dbPath == "" {
		return e, nil
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("cppdecl: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("cppdecl: migrate: %w", err)
	}
	e.store = s
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.cache != nil {
		if err := e.cache.Flush(); err != nil {
			e.logger.Printf("warning: flush cache: %v", err)
		}
	}
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil for an in-memory engine.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Config returns a copy of the reader configuration.
func (e *Engine) Config() parser.Config {
	return e.cfg.Clone()
}

func (e *Engine) pipeline() *merge.Pipeline {
	opts := []merge.Option{
		merge.WithLogger(e.logger),
		merge.WithPolicy(e.policy),
		merge.WithVerbose(e.verbose),
	}
	if e.binderSet {
		opts = append(opts, merge.WithTypedefBinder(e.binder))
	}
	return merge.NewPipeline(opts...)
}

func (e *Engine) reader() *parser.Reader {
	return parser.NewReader(e.cfg, parser.WithReaderLogger(e.logger))
}

// ReadFiles reads every unit and merges the results into one forest.
func (e *Engine) ReadFiles(ctx context.Context, files []parser.FileConfig) (*merge.Result, error) {
	res, _, err := e.read(ctx, files)
	return res, err
}

// ReadString reads src as a single unit and runs it through the merge.
func (e *Engine) ReadString(ctx context.Context, src string) (*merge.Result, error) {
	return e.ReadFiles(ctx, []parser.FileConfig{parser.NewText(src)})
}

// Index reads and merges files, then replaces the database contents with
// the merged forest.
func (e *Engine) Index(ctx context.Context, files []parser.FileConfig) (*merge.Result, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	res, paths, err := e.read(ctx, files)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveForest(res.Forest, paths); err != nil {
		return nil, fmt.Errorf("cppdecl: save forest: %w", err)
	}
	meta := map[string]string{
		MetaConfigFingerprint: e.cfg.Fingerprint(),
		MetaCompilationMode:   e.mode.String(),
		MetaIndexedAt:         time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if err := e.store.SetMetadata(k, v); err != nil {
			return nil, fmt.Errorf("cppdecl: set metadata %s: %w", k, err)
		}
	}
	return res, nil
}

// ConfigChanged reports whether the database was built with a different
// reader configuration, or was never built.
func (e *Engine) ConfigChanged() bool {
	if e.store == nil {
		return true
	}
	stored, err := e.store.GetMetadata(MetaConfigFingerprint)
	if err != nil || stored == "" {
		return true
	}
	return stored != e.cfg.Fingerprint()
}

func (e *Engine) read(ctx context.Context, files []parser.FileConfig) (*merge.Result, []string, error) {
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("cppdecl: no files to read")
	}
	units := files
	if e.mode == parser.AllAtOnce {
		units = e.allAtOnce(files)
	}

	results, err := e.readUnits(ctx, units)
	if err != nil {
		return nil, nil, err
	}

	forests := make([]*Forest, len(results))
	var paths []string
	seen := make(map[string]bool)
	for i, r := range results {
		forests[i] = r.Forest
		for _, p := range r.Files {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}

	res, err := e.pipeline().Merge(forests)
	if err != nil {
		return nil, nil, fmt.Errorf("cppdecl: merge: %w", err)
	}
	return res, paths, nil
}

// allAtOnce folds source files into one synthetic unit that includes them
// all. The unit keeps the start-with list of the last file. Any text input
// forces file-by-file reading.
func (e *Engine) allAtOnce(files []parser.FileConfig) []parser.FileConfig {
	paths := make([]string, 0, len(files))
	for _, fc := range files {
		if fc.Content != parser.SourceFile {
			e.logger.Printf("info: %s is not a source file; falling back to file-by-file compilation", fc)
			return files
		}
		paths = append(paths, e.absPath(fc.Data))
	}
	last := files[len(files)-1]
	return []parser.FileConfig{parser.NewText(parser.AllAtOnceText(paths), last.StartWithDeclarations...)}
}

func (e *Engine) absPath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if e.cfg.WorkingDirectory != "" {
		p = filepath.Join(e.cfg.WorkingDirectory, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"build":        true,
}

// DiscoverHeaders expands every directory in paths into the header files
// below it. Inside a git repository git ls-files is used so ignored files
// are skipped; otherwise the tree is walked, skipping hidden and build
// directories. Plain file arguments are kept as given.
func DiscoverHeaders(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cppdecl: stat %s: %w", p, err)
		}
		if !st.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := gitListHeaders(p)
		if err != nil {
			found, err = walkListHeaders(p)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, found...)
	}
	return out, nil
}

func gitListHeaders(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if parser.IsHeader(line) {
			paths = append(paths, filepath.Join(root, line))
		}
	}
	return paths, nil
}

func walkListHeaders(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if parser.IsHeader(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cppdecl: walk directory: %w", err)
	}
	return paths, nil
}
