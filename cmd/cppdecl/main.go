package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables read after loading .env.
const (
	envDB            = "CPPDECL_DB"
	envNeo4jURI      = "NEO4J_URI"
	envNeo4jUser     = "NEO4J_USER"
	envNeo4jPassword = "NEO4J_PASSWORD"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	a := newApp(os.Stdout, os.Stderr)
	if err := a.root().Execute(); err != nil {
		if !a.errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

// app holds the global flags and output streams of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	db     string
	format string

	// errorHandled is set by outputError so main doesn't double-print.
	errorHandled bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cppdecl",
		Short:         "Read and merge C++ header declarations",
		Long:          "cppdecl reads C++ headers with tree-sitter, merges the declaration forests of every translation unit and stores the result in SQLite for queries.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(a.format)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.PersistentFlags().StringVar(&a.db, "db", "", "database path (default: $"+envDB+" or .cppdecl/index.db relative to repo root)")
	cmd.PersistentFlags().StringVar(&a.format, "format", "json", "output format: json|text")

	cmd.AddCommand(a.mergeCmd())
	cmd.AddCommand(a.queryCmd())
	cmd.AddCommand(a.exportCmd())
	return cmd
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from --db, then $CPPDECL_DB, then
// the default under repoRoot.
func (a *app) resolveDBPath(repoRoot string) string {
	p := a.db
	if p == "" {
		p = os.Getenv(envDB)
	}
	if p == "" {
		return filepath.Join(repoRoot, ".cppdecl", "index.db")
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}

func (a *app) dbPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	return a.resolveDBPath(findRepoRoot(cwd)), nil
}

// outputResult writes a CLIResult to stdout in the selected format.
func (a *app) outputResult(result CLIResult) error {
	if a.format == "text" {
		return outputResultText(a.stdout, result)
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error goes to stdout inside
// the envelope; in text mode it goes to stderr.
func (a *app) outputError(command string, err error) error {
	a.errorHandled = true
	if a.format == "text" {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
