package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/exec"
)

// FakeClient is an in-memory client.Client. Queries evaluate the
// statement's predicate against every stored record, the way a server
// with filter expressions would; index filters are accepted but not used
// to narrow the result, so tests exercise the residual evaluation path.
type FakeClient struct {
	mu      sync.RWMutex
	records map[string]*client.Record

	// InfoResponses maps info commands to canned per-node responses.
	InfoResponses map[string]map[string]string
	// Version is the reported server feature level.
	Version client.Version

	// QueriedStatements records every statement passed to Query, for
	// assertions on pushdown decisions.
	QueriedStatements []*client.Statement
}

// NewFakeClient returns an empty fake reporting the given feature level.
func NewFakeClient(version client.Version) *FakeClient {
	return &FakeClient{
		records:       make(map[string]*client.Record),
		InfoResponses: make(map[string]map[string]string),
		Version:       version,
	}
}

// SeedPeople loads the canned Person data set into a namespace.
func (f *FakeClient) SeedPeople(namespace string, people []Person) error {
	entity := PersonEntity()
	for _, p := range people {
		key, bins, err := entity.Marshal(p)
		if err != nil {
			return err
		}
		k := client.Key{Namespace: namespace, Set: entity.SetName, UserKey: key}
		if err := f.Put(context.Background(), k, bins); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeClient) Get(_ context.Context, key client.Key) (*client.Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.records[key.String()], nil
}

func (f *FakeClient) BatchGet(ctx context.Context, keys []client.Key) ([]*client.Record, error) {
	out := make([]*client.Record, len(keys))
	for i, key := range keys {
		r, err := f.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (f *FakeClient) Put(_ context.Context, key client.Key, bins map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.records[key.String()]
	var generation uint32
	if existing != nil {
		generation = existing.Generation + 1
	}
	f.records[key.String()] = &client.Record{Key: key, Bins: bins, Generation: generation}
	return nil
}

func (f *FakeClient) Delete(_ context.Context, key client.Key) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, existed := f.records[key.String()]
	delete(f.records, key.String())
	return existed, nil
}

func (f *FakeClient) Query(_ context.Context, stmt *client.Statement) (client.RecordStream, error) {
	f.mu.Lock()
	f.QueriedStatements = append(f.QueriedStatements, stmt)
	f.mu.Unlock()

	f.mu.RLock()
	defer f.mu.RUnlock()
	var matched []*client.Record
	for _, r := range f.records {
		if r.Key.Namespace != stmt.Namespace || r.Key.Set != stmt.Set {
			continue
		}
		if !inPartitionRange(r.Key, stmt) {
			continue
		}
		if exec.Matches(stmt.Predicate, r.Key.UserKey, r.Bins) {
			matched = append(matched, r)
		}
	}
	// Map iteration order would make failures flaky; scan order is
	// undefined anyway, so sort by key for reproducibility.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Key.String() < matched[j].Key.String()
	})
	return &sliceStream{records: matched}, nil
}

func (f *FakeClient) Info(_ context.Context, command string) (map[string]string, error) {
	if responses, ok := f.InfoResponses[command]; ok {
		return responses, nil
	}
	return nil, fmt.Errorf("testutil: no canned response for %q", command)
}

func (f *FakeClient) ServerVersion(_ context.Context) (client.Version, error) {
	return f.Version, nil
}

// inPartitionRange honors partition-bounded statements so parallel scans
// see each record exactly once.
func inPartitionRange(key client.Key, stmt *client.Statement) bool {
	if stmt.PartitionCount == 0 {
		return true
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	partition := int(h.Sum32() % 4096)
	return partition >= stmt.PartitionBegin && partition < stmt.PartitionBegin+stmt.PartitionCount
}

type sliceStream struct {
	records []*client.Record
	pos     int
}

func (s *sliceStream) Next() (*client.Record, error) {
	if s.pos >= len(s.records) {
		return nil, nil
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

func (s *sliceStream) Close() error { return nil }
