package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/cppdecl"
)

func (a *app) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the merged declarations",
		Long:  "Run queries against a database written by 'cppdecl merge'. Class names may omit the leading '::'.",
	}
	cmd.AddCommand(a.classesCmd())
	cmd.AddCommand(a.classCmd())
	cmd.AddCommand(a.basesCmd())
	cmd.AddCommand(a.derivedCmd())
	cmd.AddCommand(a.hierarchyCmd())
	cmd.AddCommand(a.declsCmd())
	cmd.AddCommand(a.usersCmd())
	cmd.AddCommand(a.filesCmd())
	return cmd
}

// openEngine opens the existing database for queries.
func (a *app) openEngine() (*cppdecl.Engine, error) {
	dbPath, err := a.dbPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'cppdecl merge' first)", dbPath)
	}
	return cppdecl.New(dbPath, cppdecl.WithCacheSize(-1))
}

// withQuery runs fn against an open QueryBuilder and a file path lookup,
// reporting failures under command.
func (a *app) withQuery(command string, fn func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error)) error {
	e, err := a.openEngine()
	if err != nil {
		return a.outputError(command, err)
	}
	defer e.Close()

	q := e.Query()
	files, err := q.Files()
	if err != nil {
		return a.outputError(command, err)
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}

	res, err := fn(q, paths)
	if err != nil {
		return a.outputError(command, err)
	}
	res.Command = command
	return a.outputResult(res)
}

func counted(results any, n int) CLIResult {
	return CLIResult{Results: results, TotalCount: &n}
}

func (a *app) classesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List every class, struct and union",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("classes", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				classes, err := q.Classes()
				if err != nil {
					return CLIResult{}, err
				}
				return counted(declarationsToCLI(classes, paths), len(classes)), nil
			})
		},
	}
}

func (a *app) classCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "class <name>",
		Short: "Show one class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("class", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				c, err := q.Class(args[0])
				if err != nil {
					return CLIResult{}, err
				}
				if c == nil {
					return CLIResult{}, fmt.Errorf("class not found: %s", args[0])
				}
				return counted(declarationToCLI(c, paths), 1), nil
			})
		},
	}
}

func (a *app) basesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bases <class>",
		Short: "List the direct bases of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("bases", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				rels, err := q.Bases(args[0])
				if err != nil {
					return CLIResult{}, err
				}
				return counted(relationsToCLI(rels, paths), len(rels)), nil
			})
		},
	}
}

func (a *app) derivedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derived <class>",
		Short: "List the classes deriving directly from a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("derived", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				rels, err := q.Derived(args[0])
				if err != nil {
					return CLIResult{}, err
				}
				return counted(relationsToCLI(rels, paths), len(rels)), nil
			})
		},
	}
}

func (a *app) hierarchyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy <class>",
		Short: "Show every ancestor and descendant of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("hierarchy", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				h, err := q.ClassHierarchy(args[0])
				if err != nil {
					return CLIResult{}, err
				}
				if h == nil {
					return CLIResult{}, fmt.Errorf("class not found: %s", args[0])
				}
				return counted(CLIHierarchy{
					Class:       declarationToCLI(h.Class, paths),
					Ancestors:   relationsToCLI(h.Ancestors, paths),
					Descendants: relationsToCLI(h.Descendants, paths),
				}, 1), nil
			})
		},
	}
}

func (a *app) declsCmd() *cobra.Command {
	var kind, where string
	cmd := &cobra.Command{
		Use:   "decls",
		Short: "List declarations, optionally filtered",
		Long: "List declarations of one kind (or all kinds) for which a Risor expression holds. " +
			"The expression sees name, full_name, kind, access, class_type, file, line, type_expr, value, " +
			"modifiers and has_modifier(m).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("decls", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				decls, err := q.Declarations(cmd.Context(), kind, where)
				if err != nil {
					return CLIResult{}, err
				}
				return counted(declarationsToCLI(decls, paths), len(decls)), nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "declaration kind, e.g. class, member_function, typedef")
	cmd.Flags().StringVar(&where, "where", "", "Risor filter expression")
	return cmd
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users <name>",
		Short: "List declarations whose types mention a declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("users", func(q *cppdecl.QueryBuilder, paths map[int64]string) (CLIResult, error) {
				uses, err := q.TypeUsers(args[0])
				if err != nil {
					return CLIResult{}, err
				}
				out := make([]CLITypeUse, 0, len(uses))
				for _, u := range uses {
					out = append(out, CLITypeUse{
						Declaration: declarationToCLI(u.Declaration, paths),
						Role:        u.Role,
						Ordinal:     u.Ordinal,
					})
				}
				return counted(out, len(out)), nil
			})
		},
	}
}

func (a *app) filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the files that contributed declarations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuery("files", func(q *cppdecl.QueryBuilder, _ map[int64]string) (CLIResult, error) {
				files, err := q.Files()
				if err != nil {
					return CLIResult{}, err
				}
				out := make([]CLIFile, 0, len(files))
				for _, f := range files {
					out = append(out, CLIFile{ID: f.ID, Path: f.Path, Language: f.Language, Hash: f.Hash})
				}
				return counted(out, len(out)), nil
			})
		},
	}
}
