// Package binq derives executable queries from repository method names.
// A method name like findByLastNameAndAgeGreaterThan parses into a part
// tree, compiles with its arguments into a qualifier tree, and executes
// with secondary-index pushdown where the cluster has a usable index.
//
// Engine ties the pieces together; the subpackages are usable on their
// own for callers that only need derivation or only need execution.
package binq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/derive"
	"github.com/binquery/binq/binq/exec"
	"github.com/binquery/binq/binq/index"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/types"
)

// Settings configures an Engine.
type Settings struct {
	// Namespace is the target namespace for every query.
	Namespace string
	// ScansEnabled permits index-less queries to run as full scans.
	ScansEnabled bool
	// ScanParallelism is the partition-reader count for full scans.
	ScanParallelism int
	// IndexRefreshInterval is how often index statistics are reloaded.
	// Zero disables the background refresher.
	IndexRefreshInterval time.Duration
	// IndexSnapshotPath, when set, persists index statistics across
	// restarts so the first queries after a cold start already have
	// cardinality data.
	IndexSnapshotPath string
}

// Engine owns the executor and the index cache for one namespace.
type Engine struct {
	settings Settings
	client   client.Client
	indexes  *index.Cache
	executor *exec.Executor
	log      *slog.Logger
}

// New wires an engine to a client. Call Start to load index statistics
// before running queries; without it every query falls back to a scan.
func New(c client.Client, settings Settings, log *slog.Logger) (*Engine, error) {
	if settings.Namespace == "" {
		return nil, fmt.Errorf("binq: namespace is required")
	}
	if log == nil {
		log = slog.Default()
	}
	indexes := index.NewCache(c, log)
	executor := exec.NewExecutor(c, indexes, exec.Options{
		Namespace:       settings.Namespace,
		ScansEnabled:    settings.ScansEnabled,
		ScanParallelism: settings.ScanParallelism,
	}, log)
	return &Engine{settings: settings, client: c, indexes: indexes, executor: executor, log: log}, nil
}

// Start loads the index snapshot if one is configured, refreshes the
// cache from the cluster, and starts the periodic refresher.
func (e *Engine) Start(ctx context.Context) error {
	if path := e.settings.IndexSnapshotPath; path != "" {
		if err := e.indexes.LoadSnapshot(path); err != nil {
			// The snapshot is an optimization; a fresh refresh supersedes
			// whatever it held.
			e.log.Warn("index snapshot unavailable", "path", path, "error", err)
		}
	}
	if e.settings.IndexRefreshInterval > 0 {
		return e.indexes.StartRefresher(ctx, e.settings.IndexRefreshInterval)
	}
	return e.indexes.Refresh(ctx)
}

// Close stops the background refresher and persists the index snapshot
// when a path is configured.
func (e *Engine) Close() error {
	if err := e.indexes.Stop(); err != nil {
		return err
	}
	if path := e.settings.IndexSnapshotPath; path != "" {
		if err := e.indexes.SaveSnapshot(path); err != nil {
			e.log.Warn("saving index snapshot failed", "path", path, "error", err)
		}
	}
	return nil
}

// BuildQuery derives a method name against an entity and binds its
// arguments into an executable query.
func (e *Engine) BuildQuery(entity *meta.Entity, method string, args ...any) (*types.Query, error) {
	plan, err := derive.NewPlan(method, entity)
	if err != nil {
		return nil, err
	}
	return plan.Bind(args...)
}

// Execute derives, binds and runs a method against the entity's set,
// returning the matching records. Delete-subject methods remove the
// matches and return what was removed; count and exists callers take the
// length of the result. Typed decoding and per-method plan caching live
// in the repo package.
func (e *Engine) Execute(ctx context.Context, entity *meta.Entity, method string, args ...any) ([]*client.Record, error) {
	q, err := e.BuildQuery(entity, method, args...)
	if err != nil {
		return nil, err
	}
	records, err := e.executor.Find(ctx, entity.SetName, q)
	if err != nil {
		return nil, err
	}
	if q.IsDelete() {
		for _, r := range records {
			if _, err := e.client.Delete(ctx, r.Key); err != nil {
				return nil, fmt.Errorf("binq: deleting %s: %w", r.Key, err)
			}
		}
	}
	return records, nil
}

// Client exposes the underlying database client.
func (e *Engine) Client() client.Client { return e.client }

// Executor exposes the query executor.
func (e *Engine) Executor() *exec.Executor { return e.executor }

// Indexes exposes the secondary-index cache.
func (e *Engine) Indexes() *index.Cache { return e.indexes }

// Namespace reports the namespace the engine targets.
func (e *Engine) Namespace() string { return e.settings.Namespace }
