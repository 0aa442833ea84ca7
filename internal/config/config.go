// Package config loads cppdecl project files.
//
// A project file is YAML:
//
//	working_directory: .
//	include_paths: [include]
//	define_symbols: [NDEBUG, VERSION=2]
//	compilation_mode: file_by_file
//	unresolved_policy: warn
//	files:
//	  - path: include/shapes.h
//	  - text: "class Inline {};"
//	    start_with_declarations: ["::Inline"]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jward/cppdecl/internal/merge"
	"github.com/jward/cppdecl/internal/parser"
)

// File is one translation unit entry. Exactly one of Path and Text is set.
type File struct {
	Path                  string   `yaml:"path,omitempty"`
	Text                  string   `yaml:"text,omitempty"`
	StartWithDeclarations []string `yaml:"start_with_declarations,omitempty"`
}

// Project is the parsed form of a project file.
type Project struct {
	WorkingDirectory      string   `yaml:"working_directory,omitempty"`
	IncludePaths          []string `yaml:"include_paths,omitempty"`
	DefineSymbols         []string `yaml:"define_symbols,omitempty"`
	UndefineSymbols       []string `yaml:"undefine_symbols,omitempty"`
	StartWithDeclarations []string `yaml:"start_with_declarations,omitempty"`
	CompilationMode       string   `yaml:"compilation_mode,omitempty"`
	UnresolvedPolicy      string   `yaml:"unresolved_policy,omitempty"`
	CacheSize             int      `yaml:"cache_size,omitempty"`
	Parallelism           int      `yaml:"parallelism,omitempty"`
	Verbose               bool     `yaml:"verbose,omitempty"`
	Files                 []File   `yaml:"files,omitempty"`
}

// Load reads and validates the project file at path. A relative or empty
// working_directory is taken relative to the file's directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	switch {
	case p.WorkingDirectory == "":
		p.WorkingDirectory = dir
	case !filepath.IsAbs(p.WorkingDirectory):
		p.WorkingDirectory = filepath.Join(dir, p.WorkingDirectory)
	}
	return p, nil
}

// Parse decodes and validates a project document. Unknown keys are errors.
func Parse(data []byte) (*Project, error) {
	p := &Project{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports every invalid setting at once.
func (p *Project) Validate() error {
	var errs []error
	if _, err := parser.ParseCompilationMode(p.CompilationMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := merge.ParsePolicy(p.UnresolvedPolicy); err != nil {
		errs = append(errs, err)
	}
	if p.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", p.CacheSize))
	}
	if p.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must not be negative, got %d", p.Parallelism))
	}
	for i, f := range p.Files {
		if (f.Path == "") == (f.Text == "") {
			errs = append(errs, fmt.Errorf("files[%d]: exactly one of path and text is required", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// ParserConfig returns the reader settings of the project.
func (p *Project) ParserConfig() parser.Config {
	return parser.Config{
		WorkingDirectory:      p.WorkingDirectory,
		IncludePaths:          p.IncludePaths,
		DefineSymbols:         p.DefineSymbols,
		UndefineSymbols:       p.UndefineSymbols,
		StartWithDeclarations: p.StartWithDeclarations,
		Verbose:               p.Verbose,
	}.Clone()
}

// FileConfigs returns the project's translation units in order.
func (p *Project) FileConfigs() []parser.FileConfig {
	out := make([]parser.FileConfig, 0, len(p.Files))
	for _, f := range p.Files {
		if f.Text != "" {
			out = append(out, parser.NewText(f.Text, f.StartWithDeclarations...))
			continue
		}
		out = append(out, parser.NewSourceFile(f.Path, f.StartWithDeclarations...))
	}
	return out
}

// Mode returns the compilation mode. It assumes Validate passed.
func (p *Project) Mode() parser.CompilationMode {
	m, _ := parser.ParseCompilationMode(p.CompilationMode)
	return m
}

// Policy returns the unresolved reference policy. It assumes Validate passed.
func (p *Project) Policy() merge.UnresolvedPolicy {
	pol, _ := merge.ParsePolicy(p.UnresolvedPolicy)
	return pol
}
