package engine

import (
	"sync"

	"github.com/vantage-org/vantage/schema"
)

// ============================================================================
// RELATIONSHIP RESOLVER — Multi-hop foreign-key traversal
// ============================================================================
// Resolves a field on a related object reachable from a source row via the
// declared relationship graph (e.g. subscription -> price -> product). A
// missing join is data absence and resolves to nil, never an error. Lookups
// go through per-(object, field) indexes cached by table identity + version;
// a rebuilt index is computed in full and swapped in atomically.
// ============================================================================

type indexKey struct {
	warehouse int64
	object    string
	field     string
}

type tableIndex struct {
	version int
	byValue map[string]Row
}

type indexCache struct {
	mu      sync.RWMutex
	indexes map[indexKey]*tableIndex
}

func newIndexCache() *indexCache {
	return &indexCache{indexes: make(map[indexKey]*tableIndex)}
}

// lookup finds the first row of object whose field matches value. The index
// is rebuilt when the table's version has moved.
func (c *indexCache) lookup(w *Warehouse, object, field string, value any) Row {
	key := indexKey{warehouse: w.id, object: object, field: field}
	version := w.Version(object)

	c.mu.RLock()
	idx, ok := c.indexes[key]
	c.mu.RUnlock()

	if !ok || idx.version != version {
		idx = buildIndex(w.Table(object), version, field)
		c.mu.Lock()
		c.indexes[key] = idx
		c.mu.Unlock()
	}

	return idx.byValue[stringify(value)]
}

func buildIndex(rows []Row, version int, field string) *tableIndex {
	idx := &tableIndex{version: version, byValue: make(map[string]Row, len(rows))}
	for _, row := range rows {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		key := stringify(v)
		if _, dup := idx.byValue[key]; !dup {
			idx.byValue[key] = row
		}
	}
	return idx
}

// ============================================================================
// RESOLUTION
// ============================================================================

// Resolve returns the value of target reachable from a row of sourceObject,
// following declared foreign keys breadth-first until the target object is
// reached or the graph is exhausted (nil).
func (e *Engine) Resolve(w *Warehouse, row Row, sourceObject string, target FieldRef) any {
	if sourceObject == target.Object {
		return row[target.Field]
	}

	type hop struct {
		object string
		row    Row
	}

	visited := map[string]bool{sourceObject: true}
	frontier := []hop{{object: sourceObject, row: row}}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		for _, edge := range e.edges[cur.object] {
			if visited[edge.Target] {
				continue
			}
			fk, ok := cur.row[edge.SourceField]
			if !ok || fk == nil {
				continue
			}
			next := e.idx.lookup(w, edge.Target, edge.TargetField, fk)
			if next == nil {
				continue
			}
			if edge.Target == target.Object {
				return next[target.Field]
			}
			visited[edge.Target] = true
			frontier = append(frontier, hop{object: edge.Target, row: next})
		}
	}

	return nil
}

// ResolveBatch resolves target for many rows of the same source object
// without re-walking the graph per row: the object-level join path is found
// once, then each row follows it through the cached indexes. Rows whose path
// breaks resolve to nil.
func (e *Engine) ResolveBatch(w *Warehouse, rows []Row, sourceObject string, target FieldRef) []any {
	out := make([]any, len(rows))

	if sourceObject == target.Object {
		for i, row := range rows {
			out[i] = row[target.Field]
		}
		return out
	}

	path := e.edgePath(sourceObject, target.Object)
	if path == nil {
		// No static path; per-row traversal may still succeed through rows
		// that carry alternative foreign keys.
		for i, row := range rows {
			out[i] = e.Resolve(w, row, sourceObject, target)
		}
		return out
	}

	for i, row := range rows {
		cur := row
		for _, edge := range path {
			fk, ok := cur[edge.SourceField]
			if !ok || fk == nil {
				cur = nil
				break
			}
			cur = e.idx.lookup(w, edge.Target, edge.TargetField, fk)
			if cur == nil {
				break
			}
		}
		if cur != nil {
			out[i] = cur[target.Field]
		}
	}

	return out
}

// edgePath finds the shortest declared edge sequence between two objects,
// ignoring row data. Nil when the objects are not connected.
func (e *Engine) edgePath(source, targetObject string) []schema.Relationship {
	type node struct {
		object string
		path   []schema.Relationship
	}

	visited := map[string]bool{source: true}
	frontier := []node{{object: source}}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		for _, edge := range e.edges[cur.object] {
			if visited[edge.Target] {
				continue
			}
			next := append(append([]schema.Relationship{}, cur.path...), edge)
			if edge.Target == targetObject {
				return next
			}
			visited[edge.Target] = true
			frontier = append(frontier, node{object: edge.Target, path: next})
		}
	}

	return nil
}

// Reachable reports whether target is reachable from source in the graph.
func (e *Engine) Reachable(source, target string) bool {
	if source == target {
		return true
	}
	return e.edgePath(source, target) != nil
}
