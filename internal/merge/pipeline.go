package merge

import (
	"fmt"
	"log"
	"os"

	"github.com/jward/cppdecl/internal/decl"
)

// Stage is one step of a merge run.
type Stage int

const (
	StageInit Stage = iota
	StageJoinTopLevel
	StageJoinNested
	StageUnifyHierarchy
	StageRelink
	StageBindTypedefs
	StageDone
)

var stageNames = [...]string{
	StageInit:           "init",
	StageJoinTopLevel:   "join top level",
	StageJoinNested:     "join nested",
	StageUnifyHierarchy: "unify hierarchy",
	StageRelink:         "relink",
	StageBindTypedefs:   "bind typedefs",
	StageDone:           "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is returned when a stage aborts a merge.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("merge: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stats collects counters from every stage of one run.
type Stats struct {
	Forests           int
	TopLevel          int
	Classes           int
	CanonicalClasses  int
	DuplicatesRemoved int
	DeclaredTypes     int
	ClassRefs         int
	Relinked          int
	Unresolved        []Unresolved
}

// Result is the output of a successful merge.
type Result struct {
	Forest    *decl.Forest
	Canonical CanonicalMap
	Stats     Stats
}

// Pipeline merges independently parsed forests into one.
type Pipeline struct {
	opts    Options
	binder  TypedefBinder
	verbose bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for warnings and progress lines.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.opts.Logger = l
	}
}

// WithPolicy sets the reaction to unresolved class references.
func WithPolicy(policy UnresolvedPolicy) Option {
	return func(p *Pipeline) {
		p.opts.Policy = policy
	}
}

// WithTypedefBinder replaces BindTypedefs. A nil binder skips the stage.
func WithTypedefBinder(b TypedefBinder) Option {
	return func(p *Pipeline) {
		p.binder = b
	}
}

// WithVerbose logs one line per stage.
func WithVerbose(v bool) Option {
	return func(p *Pipeline) {
		p.verbose = v
	}
}

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		opts:   Options{Logger: log.New(os.Stderr, "cppdecl: ", 0)},
		binder: BindTypedefs,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) progress(format string, args ...any) {
	if p.verbose {
		p.opts.logger().Printf(format, args...)
	}
}

// Merge runs every stage in order over copies of forests. The inputs are
// never modified. The first failing stage aborts the run.
func (p *Pipeline) Merge(forests []*decl.Forest) (*Result, error) {
	stage := StageInit
	fail := func(err error) (*Result, error) {
		return nil, &StageError{Stage: stage, Err: err}
	}

	copies := make([]*decl.Forest, len(forests))
	for i, f := range forests {
		if f == nil {
			return fail(structuralf("forest %d is nil", i))
		}
		copies[i] = f.Clone()
	}
	res := &Result{Stats: Stats{Forests: len(forests)}}

	stage = StageJoinTopLevel
	p.progress("Joining %d declaration forests ...", len(copies))
	var top []decl.Declaration
	for _, f := range copies {
		top = JoinTopLevel(top, f.Declarations)
	}
	forest := decl.NewForest(top...)
	res.Stats.TopLevel = len(top)

	stage = StageJoinNested
	p.progress("Joining namespaces ...")
	for _, d := range forest.Declarations {
		if ns, ok := d.(*decl.Namespace); ok {
			if err := JoinDeclarations(ns); err != nil {
				return fail(err)
			}
		}
	}

	stage = StageUnifyHierarchy
	p.progress("Joining class hierarchies ...")
	cmap, hstats, err := UnifyHierarchy(forest, p.opts)
	res.Stats.Unresolved = append(res.Stats.Unresolved, hstats.Unresolved...)
	if err != nil {
		return fail(err)
	}
	res.Stats.Classes = hstats.Classes
	res.Stats.CanonicalClasses = hstats.Canonical
	res.Stats.DuplicatesRemoved = hstats.Removed

	stage = StageRelink
	p.progress("Relinking declared types ...")
	rstats, err := Relink(forest, cmap, p.opts)
	res.Stats.Unresolved = append(res.Stats.Unresolved, rstats.Unresolved...)
	if err != nil {
		return fail(err)
	}
	res.Stats.DeclaredTypes = rstats.DeclaredTypes
	res.Stats.ClassRefs = rstats.ClassRefs
	res.Stats.Relinked = rstats.Relinked

	stage = StageBindTypedefs
	if p.binder != nil {
		p.progress("Binding typedefs ...")
		p.binder(forest.Flatten())
	}

	p.progress("Merge done: %d classes, %d duplicates removed, %d types relinked",
		res.Stats.CanonicalClasses, res.Stats.DuplicatesRemoved, res.Stats.Relinked)
	res.Forest = forest
	res.Canonical = cmap
	return res, nil
}
