package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jward/cppdecl/internal/graphexport"
)

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the merged class hierarchy",
	}
	cmd.AddCommand(a.exportNeo4jCmd())
	return cmd
}

func (a *app) exportNeo4jCmd() *cobra.Command {
	var (
		rf        readFlags
		uri       string
		user      string
		password  string
		clean     bool
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "neo4j [files|dirs...]",
		Short: "Load classes and inheritance edges into Neo4j",
		Long: "Reads and merges the headers, then upserts one CppClass node per class and one INHERITS " +
			"relationship per base edge. Connection settings default to $" + envNeo4jURI + ", $" +
			envNeo4jUser + " and $" + envNeo4jPassword + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.New(a.stderr, "cppdecl: ", 0)

			res, err := readOnly(ctx, &rf, args, logger)
			if err != nil {
				return a.outputError("export neo4j", err)
			}
			nodes := graphexport.BuildClassNodes(res.Forest)
			edges := graphexport.BuildInheritanceEdges(res.Forest)

			loader, err := graphexport.NewLoader(uri, user, password,
				graphexport.WithLoaderLogger(logger), graphexport.WithBatchSize(batchSize))
			if err != nil {
				return a.outputError("export neo4j", err)
			}
			defer loader.Close(ctx)

			steps := []func() error{
				func() error { return loader.Verify(ctx) },
			}
			if clean {
				steps = append(steps, func() error { return loader.Clean(ctx) })
			}
			steps = append(steps,
				func() error { return loader.CreateIndexes(ctx) },
				func() error { return loader.LoadClasses(ctx, nodes) },
				func() error { return loader.LoadInheritance(ctx, edges) },
			)
			for _, step := range steps {
				if err := step(); err != nil {
					return a.outputError("export neo4j", err)
				}
			}
			fmt.Fprintf(a.stderr, "Exported %d classes and %d inheritance edges to %s\n", len(nodes), len(edges), uri)

			one := 1
			return a.outputResult(CLIResult{
				Command:    "export neo4j",
				Results:    CLIExportSummary{URI: uri, Classes: len(nodes), Edges: len(edges)},
				TotalCount: &one,
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&uri, "uri", envOr(envNeo4jURI, "bolt://localhost:7687"), "Neo4j URI")
	cmd.Flags().StringVar(&user, "user", envOr(envNeo4jUser, "neo4j"), "Neo4j user")
	cmd.Flags().StringVar(&password, "password", envOr(envNeo4jPassword, ""), "Neo4j password")
	cmd.Flags().BoolVar(&clean, "clean", false, "remove previously exported nodes first")
	cmd.Flags().IntVar(&batchSize, "batch-size", graphexport.DefaultBatchSize, "rows per UNWIND statement")
	return cmd
}
