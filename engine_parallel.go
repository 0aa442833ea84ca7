package cppdecl

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/cppdecl/internal/cache"
	"github.com/jward/cppdecl/internal/parser"
)

// readUnits reads every unit on a bounded worker pool. Each unit gets an
// independent forest; results come back in input order.
func (e *Engine) readUnits(ctx context.Context, units []parser.FileConfig) ([]*parser.Result, error) {
	limit := e.parallelism
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	limit = max(1, min(limit, len(units)))

	r := e.reader()
	results := make([]*parser.Result, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, fc := range units {
		g.Go(func() error {
			res, err := e.readUnit(gctx, r, fc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cppdecl: read: %w", err)
	}
	return results, nil
}

// readUnit consults the parse cache before reading fc. Units whose source
// cannot be loaded skip the cache so the reader reports the failure.
func (e *Engine) readUnit(ctx context.Context, r *parser.Reader, fc parser.FileConfig) (*parser.Result, error) {
	if e.cache == nil {
		return r.Read(ctx, fc)
	}
	content, ok := e.unitContent(fc)
	if !ok {
		return r.Read(ctx, fc)
	}
	key, err := cache.Key(e.cfg, fc, content)
	if err != nil {
		return nil, err
	}
	if res, hit := e.cache.Get(key); hit {
		if e.verbose {
			e.logger.Printf("Using cached declarations for %s ...", fc)
		}
		return res, nil
	}
	res, err := r.Read(ctx, fc)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, res)
	return res, nil
}

func (e *Engine) unitContent(fc parser.FileConfig) ([]byte, bool) {
	switch fc.Content {
	case parser.SourceFile:
		b, err := os.ReadFile(e.absPath(fc.Data))
		if err != nil {
			return nil, false
		}
		return b, true
	case parser.Text:
		return []byte(fc.Data), true
	}
	return nil, false
}
