package exec

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/types"
)

// totalPartitions is the fixed partition count of a namespace.
const totalPartitions = 4096

// scan reads the whole set, fanning partition ranges out across a worker
// pool when parallelism is configured. Each worker drains its own stream;
// results are concatenated in arbitrary order and sorted later if the
// query asks for it.
func (e *Executor) scan(ctx context.Context, set string, qual *types.Qualifier) ([]*client.Record, error) {
	parallelism := e.opts.ScanParallelism
	if parallelism < 2 {
		stmt := &client.Statement{Namespace: e.opts.Namespace, Set: set, Predicate: qual}
		return e.drain(ctx, stmt, qual)
	}

	pool, err := ants.NewPool(parallelism)
	if err != nil {
		return nil, fmt.Errorf("exec: creating scan pool: %w", err)
	}
	defer pool.Release()

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		records  []*client.Record
		firstErr error
	)
	perWorker := (totalPartitions + parallelism - 1) / parallelism
	for begin := 0; begin < totalPartitions; begin += perWorker {
		count := perWorker
		if begin+count > totalPartitions {
			count = totalPartitions - begin
		}
		stmt := &client.Statement{
			Namespace:      e.opts.Namespace,
			Set:            set,
			Predicate:      qual,
			PartitionBegin: begin,
			PartitionCount: count,
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			batch, err := e.drain(scanCtx, stmt, qual)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			records = append(records, batch...)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("exec: submitting scan worker: %w", submitErr)
			}
			mu.Unlock()
			cancel()
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return records, nil
}
