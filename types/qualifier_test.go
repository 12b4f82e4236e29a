package types

import (
	"errors"
	"strings"
	"testing"
)

func TestNewLeafArity(t *testing.T) {
	tests := []struct {
		name    string
		spec    LeafSpec
		wantErr bool
	}{
		{"equality with value", LeafSpec{Op: EQ, Path: "age", Value: int64(30)}, false},
		{"equality without value", LeafSpec{Op: EQ, Path: "age"}, true},
		{"equality with stray second value", LeafSpec{Op: EQ, Path: "age", Value: int64(1), SecondValue: int64(2)}, true},
		{"range with both bounds", LeafSpec{Op: BETWEEN, Path: "age", Value: int64(1), SecondValue: int64(2)}, false},
		{"range missing upper bound", LeafSpec{Op: BETWEEN, Path: "age", Value: int64(1)}, true},
		{"null check without value", LeafSpec{Op: IS_NULL, Path: "age"}, false},
		{"null check with value", LeafSpec{Op: IS_NULL, Path: "age", Value: int64(1)}, true},
		{"missing operation", LeafSpec{Path: "age", Value: int64(1)}, true},
		{"composite as leaf", LeafSpec{Op: AND, Value: int64(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLeaf(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLeaf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var argErr *IllegalArgumentError
				if !errors.As(err, &argErr) {
					t.Errorf("NewLeaf() error = %T, want IllegalArgumentError", err)
				}
			}
		})
	}
}

func TestLeavesPreOrder(t *testing.T) {
	a := MustLeaf(LeafSpec{Op: EQ, Path: "a", Value: int64(1)})
	b := MustLeaf(LeafSpec{Op: EQ, Path: "b", Value: int64(2)})
	c := MustLeaf(LeafSpec{Op: EQ, Path: "c", Value: int64(3)})

	tree := Or(And(a, b), c)
	leaves := tree.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("Leaves() returned %d leaves, want 3", len(leaves))
	}
	want := []string{"a", "b", "c"}
	for i, leaf := range leaves {
		if leaf.Path() != want[i] {
			t.Errorf("leaf %d path = %q, want %q", i, leaf.Path(), want[i])
		}
	}
}

func TestWithIndexHintLeavesReceiverUnchanged(t *testing.T) {
	q := MustLeaf(LeafSpec{Op: EQ, Path: "age", Value: int64(30)})
	hinted := q.WithIndexHint("idx_age")
	if q.IndexHint() != "" {
		t.Errorf("receiver index hint = %q, want empty", q.IndexHint())
	}
	if hinted.IndexHint() != "idx_age" {
		t.Errorf("copy index hint = %q, want idx_age", hinted.IndexHint())
	}
}

func TestIDLeaf(t *testing.T) {
	q, err := NewIDLeaf(EQ, "alice")
	if err != nil {
		t.Fatalf("NewIDLeaf() error = %v", err)
	}
	if !q.IsID() {
		t.Error("IsID() = false, want true")
	}
	if q.Path() != "" {
		t.Errorf("id leaf path = %q, want empty", q.Path())
	}
}

func TestCompositePanicsOnEmptyChildren(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("And() with no children did not panic")
		}
	}()
	And()
}

func TestStringRendersTree(t *testing.T) {
	q := And(
		MustLeaf(LeafSpec{Op: EQ, Path: "lastName", Value: "Anders"}),
		MustLeaf(LeafSpec{Op: GT, Path: "age", Value: int64(30)}),
	)
	s := q.String()
	for _, want := range []string{"AND(", "lastName EQ Anders", "age GT 30"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
