package derive

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/binquery/binq/binq/meta"
	"github.com/binquery/binq/types"
)

type address struct {
	Street  string `bin:"street"`
	ZipCode string `bin:"zipCode"`
}

type person struct {
	ID        string            `bin:"id,pk"`
	FirstName string            `bin:"firstName"`
	LastName  string            `bin:"lastName"`
	Age       int               `bin:"age"`
	Active    bool              `bin:"active"`
	Born      time.Time         `bin:"born"`
	Emails    []string          `bin:"emails"`
	StringMap map[string]string `bin:"stringMap"`
	Friend    *address          `bin:"friend"`
}

func personEntity(t *testing.T) *meta.Entity {
	t.Helper()
	return meta.MustParse(reflect.TypeOf(person{}))
}

func TestParseMethodSubjects(t *testing.T) {
	entity := personEntity(t)
	tests := []struct {
		method  string
		subject types.Subject
	}{
		{"findByLastName", types.SubjectFind},
		{"readByLastName", types.SubjectFind},
		{"getByLastName", types.SubjectFind},
		{"queryByLastName", types.SubjectFind},
		{"countByLastName", types.SubjectCount},
		{"existsByLastName", types.SubjectExists},
		{"deleteByLastName", types.SubjectDelete},
		{"removeByLastName", types.SubjectDelete},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			tree, err := ParseMethod(tt.method, entity)
			if err != nil {
				t.Fatalf("ParseMethod(%q) error = %v", tt.method, err)
			}
			if tree.Subject != tt.subject {
				t.Errorf("subject = %s, want %s", tree.Subject, tt.subject)
			}
			if len(tree.Groups) != 1 || len(tree.Groups[0]) != 1 {
				t.Fatalf("groups = %+v, want a single part", tree.Groups)
			}
			if got := tree.Groups[0][0].Path; got != "lastName" {
				t.Errorf("part path = %q, want lastName", got)
			}
		})
	}
}

func TestParseMethodFindAll(t *testing.T) {
	entity := personEntity(t)
	for _, method := range []string{"findAll", "find", "count"} {
		tree, err := ParseMethod(method, entity)
		if err != nil {
			t.Fatalf("ParseMethod(%q) error = %v", method, err)
		}
		if len(tree.Groups) != 0 {
			t.Errorf("ParseMethod(%q) groups = %+v, want none", method, tree.Groups)
		}
	}
}

func TestParseMethodKeywords(t *testing.T) {
	entity := personEntity(t)
	tests := []struct {
		method string
		path   string
		op     types.FilterOperation
		arity  int
	}{
		{"findByAgeGreaterThan", "age", types.GT, 1},
		{"findByAgeGreaterThanEqual", "age", types.GTEQ, 1},
		{"findByAgeLessThan", "age", types.LT, 1},
		{"findByAgeBetween", "age", types.BETWEEN, 2},
		{"findByAgeIn", "age", types.IN, 1},
		{"findByAgeIsNotNull", "age", types.IS_NOT_NULL, 0},
		{"findByLastNameContaining", "lastName", types.CONTAINING, 1},
		{"findByLastNameStartsWith", "lastName", types.STARTS_WITH, 1},
		{"findByLastNameLike", "lastName", types.LIKE, 1},
		{"findByLastNameNot", "lastName", types.NOTEQ, 1},
		{"findByActiveTrue", "active", types.EQ, 0},
		{"findByActiveIsFalse", "active", types.EQ, 0},
		{"findByBornBefore", "born", types.LT, 1},
		{"findByBornAfter", "born", types.GT, 1},
		{"findByLastName", "lastName", types.EQ, 1},
		{"findByFriendZipCode", "friend.zipCode", types.EQ, 1},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			tree, err := ParseMethod(tt.method, entity)
			if err != nil {
				t.Fatalf("ParseMethod(%q) error = %v", tt.method, err)
			}
			part := tree.Groups[0][0]
			if part.Path != tt.path {
				t.Errorf("path = %q, want %q", part.Path, tt.path)
			}
			if part.Op != tt.op {
				t.Errorf("op = %s, want %s", part.Op, tt.op)
			}
			if part.Arity != tt.arity {
				t.Errorf("arity = %d, want %d", part.Arity, tt.arity)
			}
		})
	}
}

func TestParseMethodConjunctions(t *testing.T) {
	entity := personEntity(t)

	tree, err := ParseMethod("findByFirstNameAndAgeGreaterThanOrLastName", entity)
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	if len(tree.Groups) != 2 {
		t.Fatalf("groups = %d, want 2 (Or splits branches)", len(tree.Groups))
	}
	if len(tree.Groups[0]) != 2 {
		t.Errorf("first branch has %d parts, want 2 (And)", len(tree.Groups[0]))
	}
	if tree.Groups[0][0].Path != "firstName" || tree.Groups[0][1].Path != "age" {
		t.Errorf("first branch = %+v, want firstName and age", tree.Groups[0])
	}
	if tree.Groups[1][0].Path != "lastName" {
		t.Errorf("second branch = %+v, want lastName", tree.Groups[1])
	}
}

func TestParseMethodOrderBy(t *testing.T) {
	entity := personEntity(t)
	tree, err := ParseMethod("findByLastNameOrderByAgeDescFirstNameAsc", entity)
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	want := []types.OrderClause{
		{Path: "age", Descending: true},
		{Path: "firstName", Descending: false},
	}
	if len(tree.OrderBy) != len(want) {
		t.Fatalf("order clauses = %+v, want %+v", tree.OrderBy, want)
	}
	for i, clause := range tree.OrderBy {
		if clause != want[i] {
			t.Errorf("order clause %d = %+v, want %+v", i, clause, want[i])
		}
	}
}

func TestParseMethodModifiers(t *testing.T) {
	entity := personEntity(t)

	tree, err := ParseMethod("findDistinctTop3ByLastName", entity)
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	if !tree.Distinct {
		t.Error("Distinct = false, want true")
	}
	if tree.Limit != 3 {
		t.Errorf("Limit = %d, want 3", tree.Limit)
	}

	tree, err = ParseMethod("findFirstByLastName", entity)
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	if tree.Limit != 1 {
		t.Errorf("First without a count: Limit = %d, want 1", tree.Limit)
	}
}

func TestParseMethodIgnoreCase(t *testing.T) {
	entity := personEntity(t)

	tree, err := ParseMethod("findByLastNameIgnoreCase", entity)
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	if got := tree.Groups[0][0].IgnoreCase; got != types.IgnoreCaseAlways {
		t.Errorf("IgnoreCase = %v, want IgnoreCaseAlways", got)
	}

	tree, err = ParseMethod("findByFirstNameAndAgeAllIgnoreCase", entity)
	if err != nil {
		t.Fatalf("ParseMethod() error = %v", err)
	}
	if got := tree.Groups[0][0].IgnoreCase; got != types.IgnoreCaseWhenPossible {
		t.Errorf("firstName IgnoreCase = %v, want IgnoreCaseWhenPossible", got)
	}
	if got := tree.Groups[0][1].IgnoreCase; got != types.IgnoreCaseWhenPossible {
		t.Errorf("age IgnoreCase = %v, want IgnoreCaseWhenPossible", got)
	}
}

func TestParseMethodErrors(t *testing.T) {
	entity := personEntity(t)

	var kwErr *types.UnsupportedKeywordError
	_, err := ParseMethod("findByLastNameFrobnicates", entity)
	if !errors.As(err, &kwErr) {
		t.Fatalf("unrecognized keyword: error = %v, want UnsupportedKeywordError", err)
	}
	if kwErr.Keyword != "Frobnicates" {
		t.Errorf("Keyword = %q, want Frobnicates", kwErr.Keyword)
	}

	if _, err := ParseMethod("walkByLastName", entity); !errors.As(err, &kwErr) {
		t.Errorf("unknown subject: error = %v, want UnsupportedKeywordError", err)
	}

	if _, err := ParseMethod("findByNoSuchProperty", entity); err == nil {
		t.Error("unknown property did not fail")
	}

	if _, err := ParseMethod("delete", entity); err == nil {
		t.Error("delete without criteria did not fail")
	}
}
