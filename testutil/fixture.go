// Package testutil carries the shared test fixtures: a representative
// entity exercising every bin shape, a canned data set, and an in-memory
// client that evaluates qualifier trees the way the server would.
package testutil

import (
	"reflect"
	"time"

	"github.com/binquery/binq/binq/meta"
)

func personType() reflect.Type { return reflect.TypeOf(Person{}) }

// Address is a nested structure persisted as a map bin.
type Address struct {
	Street  string `bin:"street"`
	ZipCode string `bin:"zipCode"`
}

// Person covers every bin shape: id, simple, collection, map and nested
// structure.
type Person struct {
	ID        string            `bin:"id,pk"`
	FirstName string            `bin:"firstName"`
	LastName  string            `bin:"lastName"`
	Age       int               `bin:"age"`
	Active    bool              `bin:"active"`
	Born      time.Time         `bin:"born"`
	Emails    []string          `bin:"emails"`
	StringMap map[string]string `bin:"stringMap"`
	Friend    *Address          `bin:"friend"`
}

// PersonEntity is the parsed metadata for Person.
func PersonEntity() *meta.Entity {
	return meta.MustParse(personType())
}

// People returns the canned data set most scenario tests run against.
func People() []Person {
	return []Person{
		{
			ID:        "alice",
			FirstName: "Alice",
			LastName:  "Anders",
			Age:       34,
			Active:    true,
			Born:      time.Date(1992, 3, 14, 0, 0, 0, 0, time.UTC),
			Emails:    []string{"alice@example.com", "a.anders@example.org"},
			StringMap: map[string]string{"team": "storage", "city": "Oslo"},
			Friend:    &Address{Street: "Main St 1", ZipCode: "0150"},
		},
		{
			ID:        "bob",
			FirstName: "Bob",
			LastName:  "Baker",
			Age:       41,
			Active:    true,
			Born:      time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC),
			Emails:    []string{"bob@example.com"},
			StringMap: map[string]string{"team": "query", "city": "Bergen"},
			Friend:    &Address{Street: "Side St 9", ZipCode: "5003"},
		},
		{
			ID:        "carol",
			FirstName: "Carol",
			LastName:  "Clark",
			Age:       29,
			Active:    false,
			Born:      time.Date(1997, 11, 23, 0, 0, 0, 0, time.UTC),
			Emails:    []string{"carol@example.com", "cc@example.org"},
			StringMap: map[string]string{"team": "storage", "city": "Oslo"},
		},
		{
			ID:        "dave",
			FirstName: "Dave",
			LastName:  "Anders",
			Age:       34,
			Active:    false,
			Born:      time.Date(1992, 1, 5, 0, 0, 0, 0, time.UTC),
			Emails:    nil,
			StringMap: map[string]string{"team": "infra"},
		},
	}
}
