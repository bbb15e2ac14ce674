package engine

import (
	"go.uber.org/zap"

	"github.com/vantage-org/vantage/schema"
)

// Engine computes metric formulas over a warehouse. It is safe for concurrent
// read-only use: the only mutable state is the relationship index cache,
// whose rebuilds are atomic.
type Engine struct {
	catalog *schema.Catalog
	edges   map[string][]schema.Relationship
	idx     *indexCache
	log     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRelationships adds foreign-key edges beyond those the catalog declares.
func WithRelationships(rels ...schema.Relationship) Option {
	return func(e *Engine) {
		for _, r := range rels {
			e.edges[r.Source] = append(e.edges[r.Source], r)
		}
	}
}

// New creates an Engine bound to a schema catalog. The relationship graph is
// taken from the catalog's declared edges.
func New(cat *schema.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		edges:   make(map[string][]schema.Relationship),
		idx:     newIndexCache(),
		log:     zap.NewNop(),
	}
	if cat != nil {
		for _, r := range cat.Relationships {
			e.edges[r.Source] = append(e.edges[r.Source], r)
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's schema catalog.
func (e *Engine) Catalog() *schema.Catalog { return e.catalog }
