package index

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/types"
)

// stubInfoClient answers info commands from a canned table; everything
// else is unused by the cache.
type stubInfoClient struct {
	client.Client
	responses map[string]map[string]string
}

func (s *stubInfoClient) Info(_ context.Context, command string) (map[string]string, error) {
	return s.responses[command], nil
}

func TestParseIndexList(t *testing.T) {
	response := "ns=test:set=Person:indexname=idx_age:bin=age:type=numeric:indextype=default;" +
		"ns=test:set=Person:indexname=idx_last:bin=lastName:type=string;" +
		"ns=test:set=Person:indexname=idx_emails:bin=emails:type=string:indextype=list;"

	got, err := parseIndexList(response)
	if err != nil {
		t.Fatalf("parseIndexList() error = %v", err)
	}
	want := []types.IndexDescriptor{
		{Name: "idx_age", Namespace: "test", Set: "Person", Bin: "age",
			Type: types.IndexNumeric, Collection: types.IndexCollectionNone},
		{Name: "idx_last", Namespace: "test", Set: "Person", Bin: "lastName",
			Type: types.IndexString, Collection: types.IndexCollectionNone},
		{Name: "idx_emails", Namespace: "test", Set: "Person", Bin: "emails",
			Type: types.IndexString, Collection: types.IndexCollectionList},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseIndexList() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndexListErrors(t *testing.T) {
	for name, response := range map[string]string{
		"missing separator": "ns=test:bogus",
		"incomplete entry":  "ns=test:set=Person:indexname=idx",
		"unknown type":      "ns=test:indexname=idx:bin=b:type=tensor",
		"unknown indextype": "ns=test:indexname=idx:bin=b:type=numeric:indextype=btree",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := parseIndexList(response); err == nil {
				t.Errorf("parseIndexList(%q) did not fail", response)
			}
		})
	}
}

func TestParseIndexStat(t *testing.T) {
	entries, keys, err := parseIndexStat("keys=250;entries=1000;ibtr_memory_used=4096")
	if err != nil {
		t.Fatalf("parseIndexStat() error = %v", err)
	}
	if entries != 1000 || keys != 250 {
		t.Errorf("entries, keys = %d, %d, want 1000, 250", entries, keys)
	}

	if _, _, err := parseIndexStat("entries=abc"); err == nil {
		t.Error("malformed entries count did not fail")
	}
}

func TestRefresh(t *testing.T) {
	stub := &stubInfoClient{responses: map[string]map[string]string{
		"sindex-list": {
			"node1": "ns=test:set=Person:indexname=idx_age:bin=age:type=numeric;",
		},
		"sindex-stat:ns=test;indexname=idx_age": {
			"node1": "entries=600;keys=200",
		},
	}}
	cache := NewCache(stub, nil)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	d, ok := cache.ByName("idx_age")
	if !ok {
		t.Fatal("idx_age missing after refresh")
	}
	if d.Bin != "age" || d.Type != types.IndexNumeric {
		t.Errorf("descriptor = %+v, want numeric index on age", d)
	}
	if d.Ratio != 3.0 {
		t.Errorf("Ratio = %v, want 3.0 (600 entries over 200 keys)", d.Ratio)
	}
}

func TestReplaceAndCandidates(t *testing.T) {
	cache := NewCache(nil, nil)
	cache.Replace([]types.IndexDescriptor{
		{Name: "idx_age", Namespace: "test", Bin: "age", Type: types.IndexNumeric},
		{Name: "idx_age_alt", Namespace: "test", Bin: "age", Type: types.IndexNumeric},
		{Name: "idx_other_ns", Namespace: "prod", Bin: "age", Type: types.IndexNumeric},
	})

	if got := cache.Candidates("test", "age"); len(got) != 2 {
		t.Errorf("Candidates(test, age) returned %d descriptors, want 2", len(got))
	}
	if got := cache.Candidates("test", "lastName"); len(got) != 0 {
		t.Errorf("Candidates on an unindexed bin returned %d descriptors", len(got))
	}
	if got := cache.Candidates("prod", "age"); len(got) != 1 {
		t.Errorf("Candidates(prod, age) returned %d descriptors, want 1", len(got))
	}

	// Replace swaps, never merges.
	cache.Replace([]types.IndexDescriptor{
		{Name: "idx_last", Namespace: "test", Bin: "lastName", Type: types.IndexString},
	})
	if _, ok := cache.ByName("idx_age"); ok {
		t.Error("stale descriptor survived Replace")
	}
	if got := len(cache.All()); got != 1 {
		t.Errorf("All() returned %d descriptors after replace, want 1", got)
	}
}
