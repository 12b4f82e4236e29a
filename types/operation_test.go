package types

import "testing"

func TestOnMapKeyRewrites(t *testing.T) {
	tests := []struct {
		name string
		op   FilterOperation
		want FilterOperation
		ok   bool
	}{
		{"equality", EQ, MAP_VAL_EQ_BY_KEY, true},
		{"inequality", NOTEQ, MAP_VAL_NOTEQ_BY_KEY, true},
		{"greater than", GT, MAP_VAL_GT_BY_KEY, true},
		{"range", BETWEEN, MAP_VAL_BETWEEN_BY_KEY, true},
		{"substring", CONTAINING, MAP_VAL_CONTAINING_BY_KEY, true},
		{"null check", IS_NULL, MAP_VAL_IS_NULL_BY_KEY, true},
		{"like", LIKE, MAP_VAL_LIKE_BY_KEY, true},
		{"composite has no rewrite", AND, Invalid, false},
		{"map-specific has no rewrite", MAP_KEYS_CONTAIN, Invalid, false},
		{"geo has no rewrite", GEO_WITHIN, Invalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.op.OnMapKey()
			if ok != tt.ok {
				t.Fatalf("OnMapKey(%s) ok = %v, want %v", tt.op, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("OnMapKey(%s) = %s, want %s", tt.op, got, tt.want)
			}
		})
	}
}

func TestOnCollectionRewrites(t *testing.T) {
	tests := []struct {
		op   FilterOperation
		want FilterOperation
		ok   bool
	}{
		{CONTAINING, COLLECTION_VAL_CONTAINING, true},
		{NOT_CONTAINING, COLLECTION_VAL_NOT_CONTAINING, true},
		{GT, COLLECTION_VAL_GT, true},
		{LTEQ, COLLECTION_VAL_LTEQ, true},
		{BETWEEN, COLLECTION_VAL_BETWEEN, true},
		{AND, Invalid, false},
		{GEO_WITHIN, Invalid, false},
	}
	for _, tt := range tests {
		got, ok := tt.op.OnCollection()
		if ok != tt.ok {
			t.Fatalf("OnCollection(%s) ok = %v, want %v", tt.op, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Errorf("OnCollection(%s) = %s, want %s", tt.op, got, tt.want)
		}
	}
}

func TestValueArity(t *testing.T) {
	tests := []struct {
		op   FilterOperation
		want int
	}{
		{EQ, 1},
		{BETWEEN, 2},
		{MAP_VAL_BETWEEN_BY_KEY, 2},
		{COLLECTION_VAL_BETWEEN, 2},
		{IS_NULL, 0},
		{IS_NOT_NULL, 0},
		{MAP_VAL_IS_NULL_BY_KEY, 0},
		{GEO_WITHIN, 1},
	}
	for _, tt := range tests {
		if got := tt.op.ValueArity(); got != tt.want {
			t.Errorf("ValueArity(%s) = %d, want %d", tt.op, got, tt.want)
		}
	}
}
