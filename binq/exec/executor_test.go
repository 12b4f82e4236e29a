package exec_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/derive"
	"github.com/binquery/binq/binq/exec"
	"github.com/binquery/binq/binq/index"
	"github.com/binquery/binq/testutil"
	"github.com/binquery/binq/types"
)

var serverWithExpressions = client.Version{Major: 6}

func seededClient(t *testing.T, version client.Version) *testutil.FakeClient {
	t.Helper()
	fc := testutil.NewFakeClient(version)
	if err := fc.SeedPeople("test", testutil.People()); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return fc
}

func executor(fc *testutil.FakeClient, cache *index.Cache, opts exec.Options) *exec.Executor {
	opts.Namespace = "test"
	if cache == nil {
		cache = testutil.IndexCache(fc)
	}
	return exec.NewExecutor(fc, cache, opts, nil)
}

func query(t *testing.T, method string, args ...any) *types.Query {
	t.Helper()
	plan, err := derive.NewPlan(method, testutil.PersonEntity())
	if err != nil {
		t.Fatalf("NewPlan(%q) error = %v", method, err)
	}
	q, err := plan.Bind(args...)
	if err != nil {
		t.Fatalf("Bind(%q, %v) error = %v", method, args, err)
	}
	return q
}

func find(t *testing.T, e *exec.Executor, method string, args ...any) []*client.Record {
	t.Helper()
	records, err := e.Find(context.Background(), testutil.PersonEntity().SetName, query(t, method, args...))
	if err != nil {
		t.Fatalf("Find(%q) error = %v", method, err)
	}
	return records
}

func recordIDs(records []*client.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key.UserKey.(string)
	}
	return out
}

func sortedIDs(records []*client.Record) []string {
	out := recordIDs(records)
	sort.Strings(out)
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFindFallsBackToScan(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{ScansEnabled: true})

	got := sortedIDs(find(t, e, "findByAgeGreaterThan", 30))
	if !sameIDs(got, []string{"alice", "bob", "dave"}) {
		t.Errorf("findByAgeGreaterThan(30) = %v", got)
	}
	if len(fc.QueriedStatements) != 1 || fc.QueriedStatements[0].Filter != nil {
		t.Errorf("scan issued %d statement(s) with filters, want one unfiltered", len(fc.QueriedStatements))
	}
}

func TestFindRejectsScanWhenDisabled(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{})

	_, err := e.Find(context.Background(), testutil.PersonEntity().SetName,
		query(t, "findByAgeGreaterThan", 30))
	var scanErr *types.ScanDisabledError
	if !errors.As(err, &scanErr) {
		t.Fatalf("error = %v, want ScanDisabledError", err)
	}
	if len(fc.QueriedStatements) != 0 {
		t.Error("a rejected scan still reached the client")
	}
}

func TestFindPushesRangeFilterDown(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	cache := testutil.IndexCache(fc,
		testutil.NumericIndex("idx_age", "test", "Person", "age", 2.0))
	// Scans stay disabled: the index alone must carry the query.
	e := executor(fc, cache, exec.Options{})

	got := sortedIDs(find(t, e, "findByAgeGreaterThan", 30))
	if !sameIDs(got, []string{"alice", "bob", "dave"}) {
		t.Errorf("findByAgeGreaterThan(30) = %v", got)
	}
	if len(fc.QueriedStatements) != 1 {
		t.Fatalf("issued %d statements, want 1", len(fc.QueriedStatements))
	}
	f := fc.QueriedStatements[0].Filter
	if f == nil || f.IndexName != "idx_age" || !f.Range {
		t.Fatalf("filter = %+v, want a range over idx_age", f)
	}
	if f.Begin != 31 || f.End != math.MaxInt64 {
		t.Errorf("range = [%d, %d], want [31, MaxInt64]", f.Begin, f.End)
	}
}

func TestFindExpandsInListToFilters(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	cache := testutil.IndexCache(fc,
		testutil.StringIndex("idx_last", "test", "Person", "lastName", 2.0))
	e := executor(fc, cache, exec.Options{})

	got := sortedIDs(find(t, e, "findByLastNameIn", []string{"Anders", "Baker"}))
	if !sameIDs(got, []string{"alice", "bob", "dave"}) {
		t.Errorf("findByLastNameIn = %v", got)
	}
	if len(fc.QueriedStatements) != 2 {
		t.Errorf("issued %d statements, want one equality filter per list element", len(fc.QueriedStatements))
	}
}

func TestFindIDFastPath(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{})

	got := find(t, e, "findById", "alice")
	if !sameIDs(recordIDs(got), []string{"alice"}) {
		t.Errorf("findById(alice) = %v", recordIDs(got))
	}
	if len(fc.QueriedStatements) != 0 {
		t.Error("an id lookup went through the query path")
	}

	got = find(t, e, "findById", []string{"carol", "bob", "ghost"})
	if !sameIDs(sortedIDs(got), []string{"bob", "carol"}) {
		t.Errorf("batch findById = %v, want the two existing records", sortedIDs(got))
	}
}

func TestFindIDFastPathAppliesResidual(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{})

	// alice is active: the combined predicate keeps her under True and
	// drops her under False, without ever issuing a query.
	if got := find(t, e, "findByIdAndActiveTrue", "alice"); len(got) != 1 {
		t.Errorf("findByIdAndActiveTrue(alice) = %v", recordIDs(got))
	}
	if got := find(t, e, "findByIdAndActiveFalse", "alice"); len(got) != 0 {
		t.Errorf("findByIdAndActiveFalse(alice) = %v", recordIDs(got))
	}
	if len(fc.QueriedStatements) != 0 {
		t.Error("a combined id lookup went through the query path")
	}
}

func TestFindServerVersionGate(t *testing.T) {
	old := seededClient(t, client.Version{Major: 4, Minor: 9})
	e := executor(old, nil, exec.Options{ScansEnabled: true})
	_, err := e.Find(context.Background(), testutil.PersonEntity().SetName,
		query(t, "findByLastNameNotIn", []string{"Baker"}))
	if err == nil {
		t.Fatal("NOT_IN on a 4.9 cluster did not fail")
	}

	current := seededClient(t, client.Version{Major: 5, Minor: 2})
	e = executor(current, nil, exec.Options{ScansEnabled: true})
	got := sortedIDs(find(t, e, "findByLastNameNotIn", []string{"Baker"}))
	if !sameIDs(got, []string{"alice", "carol", "dave"}) {
		t.Errorf("findByLastNameNotIn = %v", got)
	}
}

func TestFindAppliesOrderAndLimit(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{ScansEnabled: true})

	got := recordIDs(find(t, e, "findByActiveTrueOrderByAgeDesc"))
	if !sameIDs(got, []string{"bob", "alice"}) {
		t.Errorf("order by age desc = %v, want [bob alice]", got)
	}

	got = recordIDs(find(t, e, "findTop1ByActiveTrueOrderByAgeDesc"))
	if !sameIDs(got, []string{"bob"}) {
		t.Errorf("top-1 = %v, want [bob]", got)
	}
}

func TestCountAndExists(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{ScansEnabled: true})
	ctx := context.Background()
	set := testutil.PersonEntity().SetName

	n, err := e.Count(ctx, set, query(t, "countByLastName", "Anders"))
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v, want 2", n, err)
	}

	ok, err := e.Exists(ctx, set, query(t, "existsByLastName", "Anders"))
	if err != nil || !ok {
		t.Errorf("Exists(Anders) = %v, %v, want true", ok, err)
	}
	ok, err = e.Exists(ctx, set, query(t, "existsByLastName", "Nobody"))
	if err != nil || ok {
		t.Errorf("Exists(Nobody) = %v, %v, want false", ok, err)
	}
}

func TestDeleteRemovesMatches(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{ScansEnabled: true})
	ctx := context.Background()
	set := testutil.PersonEntity().SetName

	deleted, err := e.Delete(ctx, set, query(t, "deleteByLastName", "Anders"))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d records, want 2", deleted)
	}
	ok, err := e.Exists(ctx, set, query(t, "existsByLastName", "Anders"))
	if err != nil || ok {
		t.Errorf("records survived deletion: %v, %v", ok, err)
	}
}

func TestParallelScanMatchesSequential(t *testing.T) {
	sequential := executor(seededClient(t, serverWithExpressions), nil,
		exec.Options{ScansEnabled: true})
	parallel := executor(seededClient(t, serverWithExpressions), nil,
		exec.Options{ScansEnabled: true, ScanParallelism: 4})

	want := sortedIDs(find(t, sequential, "findByAgeGreaterThanEqual", 29))
	got := sortedIDs(find(t, parallel, "findByAgeGreaterThanEqual", 29))
	if !sameIDs(got, want) {
		t.Errorf("parallel scan = %v, sequential = %v", got, want)
	}
	if len(want) != 4 {
		t.Errorf("scan found %d records, want all 4", len(want))
	}
}

func TestFindStream(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{ScansEnabled: true})

	var got []string
	for result := range e.FindStream(context.Background(), testutil.PersonEntity().SetName,
		query(t, "findByActiveTrue")) {
		if result.Err != nil {
			t.Fatalf("stream error: %v", result.Err)
		}
		got = append(got, result.Record.Key.UserKey.(string))
	}
	sort.Strings(got)
	if !sameIDs(got, []string{"alice", "bob"}) {
		t.Errorf("streamed = %v, want [alice bob]", got)
	}
}

func TestFindStreamBuffersForPostProcessing(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{ScansEnabled: true})

	var got []string
	for result := range e.FindStream(context.Background(), testutil.PersonEntity().SetName,
		query(t, "findByActiveTrueOrderByAgeDesc")) {
		if result.Err != nil {
			t.Fatalf("stream error: %v", result.Err)
		}
		got = append(got, result.Record.Key.UserKey.(string))
	}
	if !sameIDs(got, []string{"bob", "alice"}) {
		t.Errorf("ordered stream = %v, want [bob alice]", got)
	}
}

func TestFindStreamSurfacesErrors(t *testing.T) {
	fc := seededClient(t, serverWithExpressions)
	e := executor(fc, nil, exec.Options{})

	var streamErr error
	for result := range e.FindStream(context.Background(), testutil.PersonEntity().SetName,
		query(t, "findByAgeGreaterThan", 30)) {
		streamErr = result.Err
	}
	var scanErr *types.ScanDisabledError
	if !errors.As(streamErr, &scanErr) {
		t.Errorf("stream error = %v, want ScanDisabledError", streamErr)
	}
}
