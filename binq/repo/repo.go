// Package repo offers a typed repository on top of the engine: derived
// finder methods, key-based CRUD, and a cache of compiled method plans so
// parsing cost is paid once per method name.
package repo

import (
	"context"
	"fmt"
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/binquery/binq/binq"
	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/derive"
	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/types"
)

// planCacheSize bounds the per-repository method-plan cache. Repositories
// rarely have more than a few dozen derived methods; the bound only
// protects against method names built from user input.
const planCacheSize = 256

// Repository executes derived queries and key operations for one entity
// type.
type Repository[T any] struct {
	engine *binq.Engine
	entity *meta.Entity
	plans  *lru.Cache[string, *derive.Plan]
}

// New builds a repository for T, which must be a struct with an
// identifiable primary key field.
func New[T any](engine *binq.Engine) (*Repository[T], error) {
	var zero T
	entity, err := meta.Parse(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	if entity.PK() == nil {
		return nil, fmt.Errorf("repo: %s has no primary key field", entity.Type)
	}
	plans, err := lru.New[string, *derive.Plan](planCacheSize)
	if err != nil {
		return nil, fmt.Errorf("repo: creating plan cache: %w", err)
	}
	return &Repository[T]{engine: engine, entity: entity, plans: plans}, nil
}

func (r *Repository[T]) plan(method string) (*derive.Plan, error) {
	if p, ok := r.plans.Get(method); ok {
		return p, nil
	}
	p, err := derive.NewPlan(method, r.entity)
	if err != nil {
		return nil, err
	}
	r.plans.Add(method, p)
	return p, nil
}

// Find runs a derived finder method ("findByLastName", ...) with its
// arguments and returns the decoded matches.
func (r *Repository[T]) Find(ctx context.Context, method string, args ...any) ([]T, error) {
	q, err := r.bind(method, types.SubjectFind, args)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, q)
}

// FindGrouped is Find with explicit per-predicate argument groups, for
// combined methods whose flat argument list would be ambiguous.
func (r *Repository[T]) FindGrouped(ctx context.Context, method string, groups [][]any) ([]T, error) {
	p, err := r.plan(method)
	if err != nil {
		return nil, err
	}
	if p.Tree().Subject != types.SubjectFind {
		return nil, fmt.Errorf("repo: %s is not a finder method", method)
	}
	q, err := p.BindGrouped(groups)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, q)
}

// Count runs a derived count method ("countByAgeGreaterThan", ...).
func (r *Repository[T]) Count(ctx context.Context, method string, args ...any) (int64, error) {
	q, err := r.bind(method, types.SubjectCount, args)
	if err != nil {
		return 0, err
	}
	return r.engine.Executor().Count(ctx, r.entity.SetName, q)
}

// Exists runs a derived existence method ("existsByEmail", ...).
func (r *Repository[T]) Exists(ctx context.Context, method string, args ...any) (bool, error) {
	q, err := r.bind(method, types.SubjectExists, args)
	if err != nil {
		return false, err
	}
	return r.engine.Executor().Exists(ctx, r.entity.SetName, q)
}

// Delete runs a derived delete method ("deleteByLastName", ...) and
// returns how many records were removed.
func (r *Repository[T]) Delete(ctx context.Context, method string, args ...any) (int64, error) {
	q, err := r.bind(method, types.SubjectDelete, args)
	if err != nil {
		return 0, err
	}
	return r.engine.Executor().Delete(ctx, r.entity.SetName, q)
}

func (r *Repository[T]) bind(method string, subject types.Subject, args []any) (*types.Query, error) {
	p, err := r.plan(method)
	if err != nil {
		return nil, err
	}
	if p.Tree().Subject != subject {
		return nil, fmt.Errorf("repo: %s is not a %s method", method, subject)
	}
	return p.Bind(args...)
}

func (r *Repository[T]) find(ctx context.Context, q *types.Query) ([]T, error) {
	records, err := r.engine.Executor().Find(ctx, r.entity.SetName, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(records))
	for i, rec := range records {
		if err := r.entity.Unmarshal(rec.Key.UserKey, rec.Bins, &out[i]); err != nil {
			return nil, fmt.Errorf("repo: decoding %s: %w", rec.Key, err)
		}
	}
	return out, nil
}

// Save writes the entity, replacing any existing record with the same
// key.
func (r *Repository[T]) Save(ctx context.Context, v T) error {
	key, bins, err := r.entity.Marshal(v)
	if err != nil {
		return err
	}
	return r.engine.Client().Put(ctx, r.key(key), bins)
}

// FindByID fetches one entity by primary key; nil means not found.
func (r *Repository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	rec, err := r.engine.Client().Get(ctx, r.key(id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	out := new(T)
	if err := r.entity.Unmarshal(rec.Key.UserKey, rec.Bins, out); err != nil {
		return nil, fmt.Errorf("repo: decoding %s: %w", rec.Key, err)
	}
	return out, nil
}

// DeleteByID removes one entity by primary key, reporting whether it
// existed.
func (r *Repository[T]) DeleteByID(ctx context.Context, id any) (bool, error) {
	return r.engine.Client().Delete(ctx, r.key(id))
}

func (r *Repository[T]) key(id any) client.Key {
	return client.Key{Namespace: r.engine.Namespace(), Set: r.entity.SetName, UserKey: id}
}
