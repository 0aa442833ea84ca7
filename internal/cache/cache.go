// Package cache keeps recently read translation units in memory, keyed by
// a content hash of their source and reader configuration.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/highwayhash"

	"github.com/jward/cppdecl/internal/parser"
)

// DefaultSize is the number of units kept when no size is configured.
const DefaultSize = 256

var hashKey = []byte("cppdecl-forest-cache-key-0123456")

// Key identifies one read: the unit data, its content and the reader
// settings that shape the result.
func Key(cfg parser.Config, fc parser.FileConfig, content []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, fmt.Errorf("cache: key: %w", err)
	}
	fmt.Fprintf(h, "%s\x00%s\x00", fc.Content, cfg.Fingerprint())
	for _, s := range fc.StartWithDeclarations {
		fmt.Fprintf(h, "%s\x00", s)
	}
	if fc.Content == parser.SourceFile {
		fmt.Fprintf(h, "%s\x00", fc.Data)
	}
	if _, err := h.Write(content); err != nil {
		return 0, fmt.Errorf("cache: key: %w", err)
	}
	return h.Sum64(), nil
}

// ForestCache is an LRU of read results. It is safe for concurrent use.
// Results are shared, so callers must not mutate them; the merge pipeline
// clones its inputs.
type ForestCache struct {
	lru *lru.Cache[uint64, *parser.Result]
}

func New(size int) (*ForestCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[uint64, *parser.Result](size)
	if err != nil {
		return nil, fmt.Errorf("cache: new: %w", err)
	}
	return &ForestCache{lru: c}, nil
}

func (c *ForestCache) Get(key uint64) (*parser.Result, bool) { return c.lru.Get(key) }
func (c *ForestCache) Add(key uint64, res *parser.Result)    { c.lru.Add(key, res) }
func (c *ForestCache) Len() int                              { return c.lru.Len() }
func (c *ForestCache) Purge()                                { c.lru.Purge() }

// Flush persists the cache. The in-memory cache has nothing to write.
func (c *ForestCache) Flush() error { return nil }
