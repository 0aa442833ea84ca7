package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/cppdecl"
	"github.com/jward/cppdecl/internal/config"
	"github.com/jward/cppdecl/internal/merge"
)

// readFlags are shared by every command that reads headers.
type readFlags struct {
	config   string
	mode     string
	policy   string
	defines  []string
	includes []string
	verbose  bool
}

func (f *readFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.config, "config", "", "YAML project file")
	cmd.Flags().StringVar(&f.mode, "mode", "", "compilation mode: file_by_file|all_at_once")
	cmd.Flags().StringVar(&f.policy, "policy", "", "unresolved class references: warn|fail")
	cmd.Flags().StringSliceVarP(&f.defines, "define", "D", nil, "preprocessor symbol NAME or NAME=VALUE (repeatable)")
	cmd.Flags().StringSliceVarP(&f.includes, "include", "I", nil, "include path (repeatable)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log reader and merge progress")
}

// project combines the optional config file with flags and positional
// paths. Flags override scalar settings and extend list settings;
// directory arguments expand into the headers below them.
func (f *readFlags) project(args []string) (*config.Project, error) {
	p := &config.Project{}
	if f.config != "" {
		loaded, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	if f.mode != "" {
		p.CompilationMode = f.mode
	}
	if f.policy != "" {
		p.UnresolvedPolicy = f.policy
	}
	if f.verbose {
		p.Verbose = true
	}
	p.DefineSymbols = append(p.DefineSymbols, f.defines...)
	p.IncludePaths = append(p.IncludePaths, f.includes...)

	paths, err := cppdecl.DiscoverHeaders(args)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %w", path, err)
		}
		p.Files = append(p.Files, config.File{Path: abs})
	}
	if len(p.Files) == 0 {
		return nil, fmt.Errorf("no input files: pass headers, directories or a --config with files")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func engineOptions(p *config.Project, logger *log.Logger) []cppdecl.Option {
	return []cppdecl.Option{
		cppdecl.WithLogger(logger),
		cppdecl.WithConfig(p.ParserConfig()),
		cppdecl.WithCompilationMode(p.Mode()),
		cppdecl.WithUnresolvedPolicy(p.Policy()),
		cppdecl.WithParallelism(p.Parallelism),
		cppdecl.WithCacheSize(p.CacheSize),
		cppdecl.WithVerbose(p.Verbose),
	}
}

func (a *app) mergeCmd() *cobra.Command {
	var (
		rf    readFlags
		force bool
	)
	cmd := &cobra.Command{
		Use:   "merge [files|dirs...]",
		Short: "Read headers, merge their declarations and write the database",
		Long:  "Reads every translation unit, merges the per-unit declaration forests into one and replaces the database contents with the result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(cmd.Context(), &rf, force, args)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "delete the database before writing")
	return cmd
}

func (a *app) runMerge(ctx context.Context, rf *readFlags, force bool, args []string) error {
	start := time.Now()

	p, err := rf.project(args)
	if err != nil {
		return a.outputError("merge", err)
	}
	dbPath, err := a.dbPath()
	if err != nil {
		return a.outputError("merge", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return a.outputError("merge", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}
	if force {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return a.outputError("merge", fmt.Errorf("removing database for --force: %w", err))
		}
		fmt.Fprintf(a.stderr, "Cleared database: %s\n", dbPath)
	}

	logger := log.New(a.stderr, "cppdecl: ", 0)
	engine, err := cppdecl.New(dbPath, engineOptions(p, logger)...)
	if err != nil {
		return a.outputError("merge", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	res, err := engine.Index(ctx, p.FileConfigs())
	if err != nil {
		return a.outputError("merge", err)
	}
	fmt.Fprintf(a.stderr, "Merged %d units in %s\n", len(p.Files), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(a.stderr, "Database: %s\n", dbPath)

	one := 1
	return a.outputResult(CLIResult{
		Command:    "merge",
		Results:    mergeSummary(res, dbPath),
		TotalCount: &one,
	})
}

func mergeSummary(res *merge.Result, dbPath string) CLIMergeSummary {
	s := CLIMergeSummary{
		Database:          dbPath,
		Units:             res.Stats.Forests,
		Classes:           res.Stats.Classes,
		CanonicalClasses:  res.Stats.CanonicalClasses,
		DuplicatesRemoved: res.Stats.DuplicatesRemoved,
		DeclaredTypes:     res.Stats.DeclaredTypes,
		Relinked:          res.Stats.Relinked,
		Unresolved:        []string{},
	}
	for _, u := range res.Stats.Unresolved {
		s.Unresolved = append(s.Unresolved, fmt.Sprintf("%s (%s)", u.Name, u.Context))
	}
	return s
}

// readOnly reads and merges without a database, for commands that consume
// the merged forest directly.
func readOnly(ctx context.Context, rf *readFlags, args []string, logger *log.Logger) (*merge.Result, error) {
	p, err := rf.project(args)
	if err != nil {
		return nil, err
	}
	engine, err := cppdecl.New("", engineOptions(p, logger)...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()
	return engine.ReadFiles(ctx, p.FileConfigs())
}
