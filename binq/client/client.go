// Package client declares the interfaces binq consumes from the database
// client collaborator: key-based record operations, filtered queries and
// scans, and the info channel used for index statistics and server
// capabilities. The wire protocol, cluster topology and retry behavior
// live behind these interfaces and are not binq's concern.
package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/binquery/binq/types"
)

// Key addresses one record.
type Key struct {
	Namespace string
	Set       string
	// UserKey is the application key: a string, int64 or []byte.
	UserKey any
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s:%v", k.Namespace, k.Set, k.UserKey)
}

// Record is one stored record's wire representation.
type Record struct {
	Key        Key
	Bins       map[string]any
	Generation uint32
}

// IndexFilter is the single pushed-down secondary-index predicate of a
// statement. At most one index participates per query.
type IndexFilter struct {
	IndexName string
	Bin       string
	// Begin/End bound a numeric range; Value holds an equality operand.
	Value any
	Begin int64
	End   int64
	Range bool
}

// Statement describes one query: the target set, an optional index
// filter, and the full predicate the server (or the residual evaluator)
// applies.
type Statement struct {
	Namespace string
	Set       string
	Filter    *IndexFilter
	// Predicate is the compiled qualifier tree; the client translates it
	// into its native filter expression.
	Predicate *types.Qualifier
	// Partition bounds a scan to a partition range for parallel readers.
	PartitionBegin int
	PartitionCount int
}

// RecordStream delivers query results one record at a time. Next returns
// nil, nil after the last record. Close releases the stream early.
type RecordStream interface {
	Next() (*Record, error)
	Close() error
}

// Client is the narrow database client surface binq executes against.
type Client interface {
	Get(ctx context.Context, key Key) (*Record, error)
	BatchGet(ctx context.Context, keys []Key) ([]*Record, error)
	Put(ctx context.Context, key Key, bins map[string]any) error
	Delete(ctx context.Context, key Key) (bool, error)

	// Query runs a filtered query or scan described by the statement.
	Query(ctx context.Context, stmt *Statement) (RecordStream, error)

	// Info issues an administrative command ("sindex-list", ...) and
	// returns the per-node responses keyed by node name.
	Info(ctx context.Context, command string) (map[string]string, error)

	// ServerVersion reports the lowest feature level across the cluster.
	ServerVersion(ctx context.Context) (Version, error)
}

// Version is a server feature level.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v is the same or a later feature level than o.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch >= o.Patch
}

// ParseVersion parses "5.2.0" style version strings, tolerating build
// suffixes after the third component.
func ParseVersion(s string) (Version, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 4)
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("client: malformed version %q", s)
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("client: malformed version %q", s)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, fmt.Errorf("client: malformed version %q", s)
	}
	if len(parts) > 2 {
		digits := parts[2]
		if i := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
			digits = digits[:i]
		}
		if digits != "" {
			if v.Patch, err = strconv.Atoi(digits); err != nil {
				return Version{}, fmt.Errorf("client: malformed version %q", s)
			}
		}
	}
	return v, nil
}
