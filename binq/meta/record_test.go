package meta

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	entity := MustParse(reflect.TypeOf(testPerson{}))
	original := testPerson{
		ID:        "alice",
		FirstName: "Alice",
		Age:       34,
		Born:      time.Date(1992, 3, 14, 12, 0, 0, 0, time.UTC),
		Blob:      []byte{0x01, 0x02},
		Emails:    []string{"alice@example.com"},
		Tags:      map[string]string{"team": "storage"},
		Friend:    &testAddress{Street: "Main St 1", ZipCode: "0150"},
	}

	key, bins, err := entity.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if key != "alice" {
		t.Errorf("key = %v, want alice", key)
	}
	if _, present := bins["id"]; present {
		t.Error("primary key leaked into bins")
	}
	if bins["age"] != int64(34) {
		t.Errorf("age bin = %v (%T), want int64 34", bins["age"], bins["age"])
	}
	if bins["born"] != original.Born.UnixMilli() {
		t.Errorf("born bin = %v, want %d", bins["born"], original.Born.UnixMilli())
	}

	var decoded testPerson
	if err := entity.Unmarshal(key, bins, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalRejectsEmptyPK(t *testing.T) {
	entity := MustParse(reflect.TypeOf(testPerson{}))
	if _, _, err := entity.Marshal(testPerson{FirstName: "NoKey"}); err == nil {
		t.Error("Marshal without a primary key did not fail")
	}
}

func TestUnmarshalSkipsMissingBins(t *testing.T) {
	entity := MustParse(reflect.TypeOf(testPerson{}))
	var decoded testPerson
	err := entity.Unmarshal("bob", map[string]any{"firstName": "Bob"}, &decoded)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.ID != "bob" || decoded.FirstName != "Bob" {
		t.Errorf("decoded = %+v, want ID bob and FirstName Bob", decoded)
	}
	if decoded.Age != 0 || decoded.Friend != nil {
		t.Errorf("absent bins mutated zero values: %+v", decoded)
	}
}

func TestUnmarshalRequiresPointer(t *testing.T) {
	entity := MustParse(reflect.TypeOf(testPerson{}))
	if err := entity.Unmarshal("x", nil, testPerson{}); err == nil {
		t.Error("Unmarshal into a value did not fail")
	}
}
