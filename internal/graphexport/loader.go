package graphexport

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DefaultBatchSize bounds the rows sent in one UNWIND statement.
const DefaultBatchSize = 1000

// Loader upserts class nodes and inheritance edges using batched UNWIND
// queries.
type Loader struct {
	driver    neo4j.DriverWithContext
	logger    *log.Logger
	batchSize int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the progress logger.
func WithLoaderLogger(l *log.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// WithBatchSize sets the maximum rows per statement.
func WithBatchSize(n int) LoaderOption {
	return func(ld *Loader) { ld.batchSize = n }
}

// NewLoader creates a driver for uri. The connection is not verified until
// first use.
func NewLoader(uri, user, password string, opts ...LoaderOption) (*Loader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("graphexport: create driver: %w", err)
	}
	l := &Loader{driver: driver, logger: log.Default(), batchSize: DefaultBatchSize}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Close releases the driver.
func (l *Loader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

// Verify checks that the server is reachable.
func (l *Loader) Verify(ctx context.Context) error {
	if err := l.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graphexport: verify: %w", err)
	}
	return nil
}

func (l *Loader) run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, l.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// Clean removes previously exported nodes and relationships.
func (l *Loader) Clean(ctx context.Context) error {
	l.logger.Println("Cleaning exported class graph...")
	for _, q := range []string{
		"MATCH ()-[r:INHERITS]->() DELETE r",
		"MATCH (n:CppClass) DETACH DELETE n",
	} {
		if err := l.run(ctx, q, nil); err != nil {
			return fmt.Errorf("graphexport: clean: %w", err)
		}
	}
	return nil
}

// CreateIndexes ensures the lookup index on CppClass.full_name exists.
func (l *Loader) CreateIndexes(ctx context.Context) error {
	l.logger.Println("Creating indexes...")
	q := "CREATE INDEX cpp_class_fullname IF NOT EXISTS FOR (n:CppClass) ON (n.full_name)"
	if err := l.run(ctx, q, nil); err != nil {
		return fmt.Errorf("graphexport: create indexes: %w", err)
	}
	return nil
}

const upsertClasses = `UNWIND $batch AS row
MERGE (n:CppClass {full_name: row.full_name})
SET n.name = row.name, n.class_type = row.class_type, n.file = row.file,
    n.line = row.line, n.member_count = row.members`

const upsertInheritance = `UNWIND $batch AS row
MERGE (d:CppClass {full_name: row.derived})
MERGE (b:CppClass {full_name: row.base})
MERGE (d)-[r:INHERITS]->(b)
SET r.access = row.access`

// LoadClasses upserts CppClass nodes.
func (l *Loader) LoadClasses(ctx context.Context, nodes []ClassNode) error {
	l.logger.Printf("Loading %d classes...", len(nodes))
	for _, b := range chunk(classBatch(nodes), l.batchSize) {
		if err := l.run(ctx, upsertClasses, map[string]any{"batch": b}); err != nil {
			return fmt.Errorf("graphexport: load classes: %w", err)
		}
	}
	return nil
}

// LoadInheritance upserts INHERITS relationships.
func (l *Loader) LoadInheritance(ctx context.Context, edges []InheritanceEdge) error {
	l.logger.Printf("Loading %d inheritance edges...", len(edges))
	for _, b := range chunk(edgeBatch(edges), l.batchSize) {
		if err := l.run(ctx, upsertInheritance, map[string]any{"batch": b}); err != nil {
			return fmt.Errorf("graphexport: load inheritance: %w", err)
		}
	}
	return nil
}
