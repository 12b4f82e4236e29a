package exec

import (
	"testing"

	"github.com/binquery/binq/types"
)

func sampleBins() map[string]any {
	return map[string]any{
		"firstName": "Alice",
		"lastName":  "Anders",
		"age":       int64(34),
		"active":    true,
		"emails":    []any{"alice@example.com", "a.anders@example.org"},
		"stringMap": map[any]any{"team": "storage", "city": "Oslo"},
		"friend":    map[any]any{"street": "Main St 1", "zipCode": "0150"},
		"scores":    []any{int64(3), int64(7), int64(12)},
	}
}

func TestMatchesLeafOperators(t *testing.T) {
	bins := sampleBins()
	tests := []struct {
		name string
		spec types.LeafSpec
		want bool
	}{
		{"eq hit", types.LeafSpec{Op: types.EQ, Path: "lastName", Value: "Anders"}, true},
		{"eq miss", types.LeafSpec{Op: types.EQ, Path: "lastName", Value: "Baker"}, false},
		{"eq ignore case", types.LeafSpec{Op: types.EQ, Path: "lastName", Value: "ANDERS", IgnoreCase: true}, true},
		{"eq widened number", types.LeafSpec{Op: types.EQ, Path: "age", Value: 34}, true},
		{"noteq", types.LeafSpec{Op: types.NOTEQ, Path: "lastName", Value: "Baker"}, true},
		{"gt hit", types.LeafSpec{Op: types.GT, Path: "age", Value: int64(30)}, true},
		{"gt boundary", types.LeafSpec{Op: types.GT, Path: "age", Value: int64(34)}, false},
		{"gteq boundary", types.LeafSpec{Op: types.GTEQ, Path: "age", Value: int64(34)}, true},
		{"lt", types.LeafSpec{Op: types.LT, Path: "age", Value: int64(40)}, true},
		{"between inclusive", types.LeafSpec{Op: types.BETWEEN, Path: "age", Value: int64(34), SecondValue: int64(40)}, true},
		{"between miss", types.LeafSpec{Op: types.BETWEEN, Path: "age", Value: int64(35), SecondValue: int64(40)}, false},
		{"string ordering", types.LeafSpec{Op: types.GT, Path: "lastName", Value: "Aa"}, true},
		{"in hit", types.LeafSpec{Op: types.IN, Path: "lastName", Value: []any{"Baker", "Anders"}}, true},
		{"in miss", types.LeafSpec{Op: types.IN, Path: "lastName", Value: []any{"Baker", "Clark"}}, false},
		{"not in", types.LeafSpec{Op: types.NOT_IN, Path: "lastName", Value: []any{"Baker"}}, true},
		{"containing substring", types.LeafSpec{Op: types.CONTAINING, Path: "lastName", Value: "der"}, true},
		{"starts with", types.LeafSpec{Op: types.STARTS_WITH, Path: "lastName", Value: "And"}, true},
		{"ends with", types.LeafSpec{Op: types.ENDS_WITH, Path: "lastName", Value: "ers"}, true},
		{"like", types.LeafSpec{Op: types.LIKE, Path: "lastName", Value: "^And.*s$"}, true},
		{"like ignore case", types.LeafSpec{Op: types.LIKE, Path: "lastName", Value: "^and", IgnoreCase: true}, true},
		{"is null on absent bin", types.LeafSpec{Op: types.IS_NULL, Path: "missing"}, true},
		{"is null on present bin", types.LeafSpec{Op: types.IS_NULL, Path: "lastName"}, false},
		{"is not null", types.LeafSpec{Op: types.IS_NOT_NULL, Path: "lastName"}, true},
		{"absent bin never matches", types.LeafSpec{Op: types.EQ, Path: "missing", Value: "x"}, false},
		{"list element", types.LeafSpec{Op: types.COLLECTION_VAL_CONTAINING, Path: "emails", Value: "bob@example.com"}, false},
		{"list element hit", types.LeafSpec{Op: types.COLLECTION_VAL_CONTAINING, Path: "emails", Value: "alice@example.com"}, true},
		{"list element gt", types.LeafSpec{Op: types.COLLECTION_VAL_GT, Path: "scores", Value: int64(10)}, true},
		{"list element between", types.LeafSpec{Op: types.COLLECTION_VAL_BETWEEN, Path: "scores", Value: int64(5), SecondValue: int64(8)}, true},
		{"map keys contain", types.LeafSpec{Op: types.MAP_KEYS_CONTAIN, Path: "stringMap", Value: "team"}, true},
		{"map keys not contain", types.LeafSpec{Op: types.MAP_KEYS_NOT_CONTAIN, Path: "stringMap", Value: "country"}, true},
		{"map values contain", types.LeafSpec{Op: types.MAP_VALUES_CONTAIN, Path: "stringMap", Value: "Oslo"}, true},
		{"by-key equality", types.LeafSpec{Op: types.MAP_VAL_EQ_BY_KEY, Path: "stringMap", Key: "team", Value: "storage"}, true},
		{"by-key miss", types.LeafSpec{Op: types.MAP_VAL_EQ_BY_KEY, Path: "stringMap", Key: "team", Value: "query"}, false},
		{"by-key starts with", types.LeafSpec{Op: types.MAP_VAL_STARTS_WITH_BY_KEY, Path: "friend", Key: "street", Value: "Main"}, true},
		{"by-key is null on absent key", types.LeafSpec{Op: types.MAP_VAL_IS_NULL_BY_KEY, Path: "friend", Key: "country"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := types.MustLeaf(tt.spec)
			if got := Matches(q, "alice", bins); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", q, got, tt.want)
			}
		})
	}
}

func TestMatchesComposites(t *testing.T) {
	bins := sampleBins()
	lastName := types.MustLeaf(types.LeafSpec{Op: types.EQ, Path: "lastName", Value: "Anders"})
	tooOld := types.MustLeaf(types.LeafSpec{Op: types.GT, Path: "age", Value: int64(40)})
	youngEnough := types.MustLeaf(types.LeafSpec{Op: types.LT, Path: "age", Value: int64(40)})

	if !Matches(types.And(lastName, youngEnough), "alice", bins) {
		t.Error("AND with two matching children did not match")
	}
	if Matches(types.And(lastName, tooOld), "alice", bins) {
		t.Error("AND with one failing child matched")
	}
	if !Matches(types.Or(tooOld, lastName), "alice", bins) {
		t.Error("OR with one matching child did not match")
	}
	if Matches(types.Or(tooOld), "alice", bins) {
		t.Error("OR with only failing children matched")
	}

	// Nesting must not change the outcome: And(And(a,b),c), And(a,And(b,c))
	// and the flat form agree, likewise for OR.
	active := types.MustLeaf(types.LeafSpec{Op: types.EQ, Path: "active", Value: true})
	wrongName := types.MustLeaf(types.LeafSpec{Op: types.EQ, Path: "lastName", Value: "Baker"})

	matchingAnds := []*types.Qualifier{
		types.And(lastName, active, youngEnough),
		types.And(types.And(lastName, active), youngEnough),
		types.And(lastName, types.And(active, youngEnough)),
	}
	for _, q := range matchingAnds {
		if !Matches(q, "alice", bins) {
			t.Errorf("AND grouping changed the outcome, %s did not match", q)
		}
	}
	failingAnds := []*types.Qualifier{
		types.And(lastName, active, tooOld),
		types.And(types.And(lastName, active), tooOld),
		types.And(lastName, types.And(active, tooOld)),
	}
	for _, q := range failingAnds {
		if Matches(q, "alice", bins) {
			t.Errorf("AND grouping changed the outcome, %s matched", q)
		}
	}

	matchingOrs := []*types.Qualifier{
		types.Or(tooOld, wrongName, lastName),
		types.Or(types.Or(tooOld, wrongName), lastName),
		types.Or(tooOld, types.Or(wrongName, lastName)),
	}
	for _, q := range matchingOrs {
		if !Matches(q, "alice", bins) {
			t.Errorf("OR grouping changed the outcome, %s did not match", q)
		}
	}
	if Matches(types.Or(tooOld, types.Or(wrongName, tooOld)), "alice", bins) {
		t.Error("nested OR with only failing leaves matched")
	}

	// Mixed nesting in both directions.
	if !Matches(types.And(lastName, types.Or(tooOld, active)), "alice", bins) {
		t.Error("OR nested under AND did not match")
	}
	if Matches(types.Or(tooOld, types.And(lastName, tooOld)), "alice", bins) {
		t.Error("AND nested under OR matched with a failing conjunct")
	}
}

func TestMatchesID(t *testing.T) {
	bins := sampleBins()
	mustID := func(op types.FilterOperation, v any) *types.Qualifier {
		q, err := types.NewIDLeaf(op, v)
		if err != nil {
			t.Fatalf("NewIDLeaf(%s) error = %v", op, err)
		}
		return q
	}

	if !Matches(mustID(types.EQ, "alice"), "alice", bins) {
		t.Error("id EQ did not match its own key")
	}
	if Matches(mustID(types.EQ, "bob"), "alice", bins) {
		t.Error("id EQ matched a different key")
	}
	if !Matches(mustID(types.IN, []any{"bob", "alice"}), "alice", bins) {
		t.Error("id IN did not match a listed key")
	}
	if !Matches(mustID(types.LIKE, "^ali"), "alice", bins) {
		t.Error("id LIKE did not match")
	}
}

func TestMatchesNavigatesCTX(t *testing.T) {
	bins := map[string]any{
		"profile": map[any]any{
			"address": map[any]any{"zipCode": "0150"},
			"phones":  []any{"555-1", "555-2"},
		},
	}

	q := types.MustLeaf(types.LeafSpec{
		Op:   types.MAP_VAL_EQ_BY_KEY,
		Path: "profile",
		CTX:  []types.CTXElement{types.MapKey("address")},
		Key:  "zipCode", Value: "0150",
	})
	if !Matches(q, "k", bins) {
		t.Errorf("context navigation missed: %s", q)
	}

	q = types.MustLeaf(types.LeafSpec{
		Op:   types.MAP_VAL_EQ_BY_KEY,
		Path: "profile",
		CTX:  []types.CTXElement{types.MapKey("nope")},
		Key:  "zipCode", Value: "0150",
	})
	if Matches(q, "k", bins) {
		t.Errorf("dead context path matched: %s", q)
	}

	// List index selector inside the context path.
	q = types.MustLeaf(types.LeafSpec{
		Op:   types.EQ,
		Path: "profile",
		CTX:  []types.CTXElement{types.MapKey("phones"), types.ListIndex(1)},
		Value: "555-2",
	})
	if !Matches(q, "k", bins) {
		t.Errorf("list index navigation missed: %s", q)
	}

	// Rank selectors need server-side ordering and never match here.
	q = types.MustLeaf(types.LeafSpec{
		Op:   types.EQ,
		Path: "profile",
		CTX:  []types.CTXElement{types.MapKey("phones"), types.ListRank(0)},
		Value: "555-1",
	})
	if Matches(q, "k", bins) {
		t.Errorf("rank selector evaluated client-side: %s", q)
	}
}
