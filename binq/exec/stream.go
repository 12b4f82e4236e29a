package exec

import (
	"context"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/index"
	"github.com/binquery/binq/types"
)

// Result is one element of a streamed query: a record or a terminal
// error.
type Result struct {
	Record *client.Record
	Err    error
}

// FindStream runs the query and delivers matches on the returned channel
// as they arrive. Queries with ordering, paging or distinct modifiers
// need the whole result set first and are buffered internally; plain
// queries stream record by record. The channel closes after the last
// result; an error, if any, is the final element. Cancelling the context
// stops the stream.
func (e *Executor) FindStream(ctx context.Context, set string, q *types.Query) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		if q.HasPostProcessing() {
			records, err := e.Find(ctx, set, q)
			if err != nil {
				emit(ctx, out, Result{Err: err})
				return
			}
			for _, r := range records {
				if !emit(ctx, out, Result{Record: r}) {
					return
				}
			}
			return
		}
		e.stream(ctx, set, q, out)
	}()
	return out
}

func (e *Executor) stream(ctx context.Context, set string, q *types.Query, out chan<- Result) {
	qual := q.CriteriaObject()
	if err := e.checkServerSupport(ctx, qual); err != nil {
		emit(ctx, out, Result{Err: err})
		return
	}

	// The fast paths and multi-filter merge buffer anyway; reuse the
	// one-shot fetch for them.
	if idLeaf := idFastPath(qual); idLeaf != nil {
		records, err := e.fetchByID(ctx, set, idLeaf, qual)
		emitAll(ctx, out, records, err)
		return
	}
	selection := index.Select(qual, e.indexes, e.opts.Namespace)
	if selection.Descriptor == nil && !e.opts.ScansEnabled {
		emit(ctx, out, Result{Err: &types.ScanDisabledError{Namespace: e.opts.Namespace, Set: set}})
		return
	}
	filters := statementFilters(selection)
	if len(filters) != 1 {
		records, err := e.fetch(ctx, set, q)
		emitAll(ctx, out, records, err)
		return
	}

	stmt := &client.Statement{
		Namespace: e.opts.Namespace,
		Set:       set,
		Filter:    filters[0],
		Predicate: qual,
	}
	stream, err := e.client.Query(ctx, stmt)
	if err != nil {
		emit(ctx, out, Result{Err: err})
		return
	}
	defer func() { _ = stream.Close() }()
	for {
		if err := ctx.Err(); err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}
		r, err := stream.Next()
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}
		if r == nil {
			return
		}
		if Matches(qual, r.Key.UserKey, r.Bins) {
			if !emit(ctx, out, Result{Record: r}) {
				return
			}
		}
	}
}

func emitAll(ctx context.Context, out chan<- Result, records []*client.Record, err error) {
	if err != nil {
		emit(ctx, out, Result{Err: err})
		return
	}
	for _, r := range records {
		if !emit(ctx, out, Result{Record: r}) {
			return
		}
	}
}

func emit(ctx context.Context, out chan<- Result, r Result) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
