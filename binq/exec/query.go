package exec

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/index"
	"github.com/binquery/binq/types"
)

// Options tunes an Executor.
type Options struct {
	Namespace string
	// ScansEnabled permits queries no secondary index can serve to fall
	// back to a full set scan. Off by default: an accidental scan on a
	// large namespace is an outage, not a slow query.
	ScansEnabled bool
	// ScanParallelism is the number of concurrent partition readers for
	// full scans. Values below 2 scan sequentially.
	ScanParallelism int
}

// Executor runs compiled queries against a cluster: primary-key fast
// paths, secondary-index pushdown with residual filtering, or partitioned
// scans.
type Executor struct {
	client  client.Client
	indexes *index.Cache
	opts    Options
	log     *slog.Logger

	versionOnce sync.Once
	version     client.Version
	versionErr  error
}

// NewExecutor wires an executor to its client and index cache.
func NewExecutor(c client.Client, indexes *index.Cache, opts Options, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{client: c, indexes: indexes, opts: opts, log: log}
}

// Find runs the query against a set and returns the matching records
// after post-processing.
func (e *Executor) Find(ctx context.Context, set string, q *types.Query) ([]*client.Record, error) {
	records, err := e.fetch(ctx, set, q)
	if err != nil {
		return nil, err
	}
	return postProcess(records, q), nil
}

// Count runs the query and returns the number of matches, honoring
// distinct and paging modifiers.
func (e *Executor) Count(ctx context.Context, set string, q *types.Query) (int64, error) {
	records, err := e.Find(ctx, set, q)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// Exists reports whether at least one record matches.
func (e *Executor) Exists(ctx context.Context, set string, q *types.Query) (bool, error) {
	records, err := e.fetch(ctx, set, q)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// Delete removes every matching record and returns how many were
// actually deleted.
func (e *Executor) Delete(ctx context.Context, set string, q *types.Query) (int64, error) {
	records, err := e.Find(ctx, set, q)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, r := range records {
		existed, err := e.client.Delete(ctx, r.Key)
		if err != nil {
			return deleted, fmt.Errorf("exec: deleting %s: %w", r.Key, err)
		}
		if existed {
			deleted++
		}
	}
	return deleted, nil
}

func (e *Executor) fetch(ctx context.Context, set string, q *types.Query) ([]*client.Record, error) {
	qual := q.CriteriaObject()
	if err := e.checkServerSupport(ctx, qual); err != nil {
		return nil, err
	}

	if idLeaf := idFastPath(qual); idLeaf != nil {
		return e.fetchByID(ctx, set, idLeaf, qual)
	}

	selection := index.Select(qual, e.indexes, e.opts.Namespace)
	if selection.Descriptor == nil && !e.opts.ScansEnabled {
		return nil, &types.ScanDisabledError{Namespace: e.opts.Namespace, Set: set}
	}

	filters := statementFilters(selection)
	if len(filters) == 0 {
		e.log.Debug("falling back to scan", "set", set)
		return e.scan(ctx, set, qual)
	}

	// One statement per pushed-down filter operand; results merge by key
	// since operands of one IN list can overlap only in pathological data.
	var records []*client.Record
	seen := map[string]struct{}{}
	for _, filter := range filters {
		stmt := &client.Statement{
			Namespace: e.opts.Namespace,
			Set:       set,
			Filter:    filter,
			Predicate: qual,
		}
		batch, err := e.drain(ctx, stmt, qual)
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			id := r.Key.String()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			records = append(records, r)
		}
	}
	return records, nil
}

// drain consumes a statement's stream, applying the full predicate
// client-side. The index filter is a superset of the predicate, so
// re-evaluating the whole tree keeps residual handling uniform.
func (e *Executor) drain(ctx context.Context, stmt *client.Statement, qual *types.Qualifier) ([]*client.Record, error) {
	stream, err := e.client.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("exec: querying %s.%s: %w", stmt.Namespace, stmt.Set, err)
	}
	defer func() { _ = stream.Close() }()

	var records []*client.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := stream.Next()
		if err != nil {
			return nil, fmt.Errorf("exec: reading %s.%s: %w", stmt.Namespace, stmt.Set, err)
		}
		if r == nil {
			return records, nil
		}
		if Matches(qual, r.Key.UserKey, r.Bins) {
			records = append(records, r)
		}
	}
}

// idFastPath returns the id leaf when the tree is either a lone id
// predicate or an AND with exactly one id child, so execution can go
// through Get/BatchGet instead of a query.
func idFastPath(q *types.Qualifier) *types.Qualifier {
	if q == nil {
		return nil
	}
	if q.IsID() && (q.Op() == types.EQ || q.Op() == types.IN) {
		return q
	}
	if q.Op() != types.AND {
		return nil
	}
	var found *types.Qualifier
	for _, child := range q.Children() {
		if child.IsID() && (child.Op() == types.EQ || child.Op() == types.IN) {
			if found != nil {
				return nil
			}
			found = child
		}
	}
	return found
}

func (e *Executor) fetchByID(ctx context.Context, set string, idLeaf, qual *types.Qualifier) ([]*client.Record, error) {
	var keys []client.Key
	switch idLeaf.Op() {
	case types.EQ:
		keys = []client.Key{{Namespace: e.opts.Namespace, Set: set, UserKey: idLeaf.Value()}}
	case types.IN:
		ids, ok := idLeaf.Value().([]any)
		if !ok {
			return nil, fmt.Errorf("exec: id IN operand is %T, want a list", idLeaf.Value())
		}
		keys = make([]client.Key, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, client.Key{Namespace: e.opts.Namespace, Set: set, UserKey: id})
		}
	}

	var fetched []*client.Record
	if len(keys) == 1 {
		r, err := e.client.Get(ctx, keys[0])
		if err != nil {
			return nil, fmt.Errorf("exec: get %s: %w", keys[0], err)
		}
		if r != nil {
			fetched = append(fetched, r)
		}
	} else {
		batch, err := e.client.BatchGet(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("exec: batch get %d keys: %w", len(keys), err)
		}
		for _, r := range batch {
			if r != nil {
				fetched = append(fetched, r)
			}
		}
	}

	// Remaining predicates of a combined query filter the fetched records.
	var records []*client.Record
	for _, r := range fetched {
		if Matches(qual, r.Key.UserKey, r.Bins) {
			records = append(records, r)
		}
	}
	return records, nil
}

// statementFilters translates an index selection into concrete statement
// filters. IN expands to one equality filter per operand; ranges map to
// inclusive bounds.
func statementFilters(sel index.Selection) []*client.IndexFilter {
	if sel.Descriptor == nil || sel.Leaf == nil {
		return nil
	}
	d := sel.Descriptor
	leaf := sel.Leaf
	base := client.IndexFilter{IndexName: d.Name, Bin: d.Bin}

	switch leaf.Op() {
	case types.EQ, types.GEO_WITHIN:
		f := base
		f.Value = leaf.Value()
		return []*client.IndexFilter{&f}
	case types.IN:
		values, ok := leaf.Value().([]any)
		if !ok {
			return nil
		}
		out := make([]*client.IndexFilter, 0, len(values))
		for _, v := range values {
			f := base
			f.Value = v
			out = append(out, &f)
		}
		return out
	case types.BETWEEN:
		f := base
		f.Range = true
		f.Begin, _ = leaf.Value().(int64)
		f.End, _ = leaf.SecondValue().(int64)
		return []*client.IndexFilter{&f}
	case types.GT, types.GTEQ, types.LT, types.LTEQ:
		v, ok := leaf.Value().(int64)
		if !ok {
			return nil
		}
		f := base
		f.Range = true
		switch leaf.Op() {
		case types.GT:
			if v == math.MaxInt64 {
				return nil
			}
			f.Begin, f.End = v+1, math.MaxInt64
		case types.GTEQ:
			f.Begin, f.End = v, math.MaxInt64
		case types.LT:
			if v == math.MinInt64 {
				return nil
			}
			f.Begin, f.End = math.MinInt64, v-1
		case types.LTEQ:
			f.Begin, f.End = math.MinInt64, v
		}
		return []*client.IndexFilter{&f}
	}
	return nil
}

// checkServerSupport rejects operators the cluster's feature level cannot
// evaluate instead of silently returning wrong results.
func (e *Executor) checkServerSupport(ctx context.Context, qual *types.Qualifier) error {
	required, op := requiredVersion(qual)
	e.versionOnce.Do(func() {
		e.version, e.versionErr = e.client.ServerVersion(ctx)
	})
	if e.versionErr != nil {
		return fmt.Errorf("exec: resolving server version: %w", e.versionErr)
	}
	if !e.version.AtLeast(required) {
		return fmt.Errorf("exec: operator %s requires server %s, cluster is %s", op, required, e.version)
	}
	return nil
}

var (
	baselineVersion   = client.Version{Major: 4, Minor: 9}
	expressionVersion = client.Version{Major: 5, Minor: 2}
)

// requiredVersion reports the minimum server feature level across the
// tree. Negated and null-check operators only exist as filter
// expressions, which arrived in 5.2.
func requiredVersion(q *types.Qualifier) (client.Version, types.FilterOperation) {
	required, op := baselineVersion, types.EQ
	if q == nil {
		return required, op
	}
	for _, leaf := range q.Leaves() {
		switch leaf.Op() {
		case types.NOT_IN, types.NOT_CONTAINING, types.IS_NULL, types.IS_NOT_NULL,
			types.MAP_VAL_NOT_CONTAINING_BY_KEY, types.MAP_VAL_IS_NULL_BY_KEY,
			types.MAP_VAL_IS_NOT_NULL_BY_KEY, types.MAP_KEYS_NOT_CONTAIN,
			types.MAP_VALUES_NOT_CONTAIN, types.COLLECTION_VAL_NOT_CONTAINING:
			return expressionVersion, leaf.Op()
		}
	}
	return required, op
}
