package exec

import (
	"sort"

	"github.com/binquery/binq/binq/client"
	"github.com/binquery/binq/binq/convert"
	"github.com/binquery/binq/types"
)

// postProcess applies the query modifiers the server cannot: ordering,
// distinct, offset and limit, in that order. Sorting is stable so equal
// keys keep their scan order and repeated runs page consistently.
func postProcess(records []*client.Record, q *types.Query) []*client.Record {
	if order := q.OrderBy(); len(order) > 0 {
		sortRecords(records, order)
	}
	if q.Distinct() {
		records = dedupe(records)
	}
	if offset := q.Offset(); offset > 0 {
		if offset >= len(records) {
			return nil
		}
		records = records[offset:]
	}
	if limit := q.Limit(); limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

func sortRecords(records []*client.Record, order []types.OrderClause) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, clause := range order {
			a := records[i].Bins[clause.Path]
			b := records[j].Bins[clause.Path]
			c := compareForSort(a, b)
			if c == 0 {
				continue
			}
			if clause.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareForSort extends the predicate ordering with a missing-bins rule:
// absent values sort first ascending.
func compareForSort(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compare(a, b)
}

// dedupe drops records whose bins are byte-identical under the canonical
// encoding, keeping the first occurrence.
func dedupe(records []*client.Record) []*client.Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		encoded, err := convert.Blob(r.Bins)
		if err != nil {
			// An unencodable record cannot collide with anything; keep it.
			out = append(out, r)
			continue
		}
		if _, dup := seen[string(encoded)]; dup {
			continue
		}
		seen[string(encoded)] = struct{}{}
		out = append(out, r)
	}
	return out
}
