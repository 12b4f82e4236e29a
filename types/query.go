package types

// Query wraps a root qualifier with the result modifiers derived from the
// method name. It is the unit handed to execution dispatch.
type Query struct {
	qualifier *Qualifier
	orderBy   []OrderClause
	offset    int
	limit     int
	distinct  bool
	count     bool
	exists    bool
	delete    bool
}

// QuerySpec collects the slots of a Query.
type QuerySpec struct {
	Qualifier *Qualifier
	OrderBy   []OrderClause
	Offset    int
	Limit     int
	Distinct  bool
	Subject   Subject
}

// NewQuery builds a query around a root qualifier. A nil qualifier is
// legal and means "match all" (used by findAll-style operations).
func NewQuery(spec QuerySpec) *Query {
	q := &Query{
		qualifier: spec.Qualifier,
		offset:    spec.Offset,
		limit:     spec.Limit,
		distinct:  spec.Distinct,
		count:     spec.Subject == SubjectCount,
		exists:    spec.Subject == SubjectExists,
		delete:    spec.Subject == SubjectDelete,
	}
	if len(spec.OrderBy) > 0 {
		q.orderBy = append([]OrderClause(nil), spec.OrderBy...)
	}
	return q
}

// CriteriaObject returns the root qualifier, nil for match-all queries.
func (q *Query) CriteriaObject() *Qualifier { return q.qualifier }

// OrderBy returns a copy of the sort clauses.
func (q *Query) OrderBy() []OrderClause {
	if len(q.orderBy) == 0 {
		return nil
	}
	return append([]OrderClause(nil), q.orderBy...)
}

// Offset returns the number of leading results to skip.
func (q *Query) Offset() int { return q.offset }

// Limit returns the maximum result count; zero means unlimited.
func (q *Query) Limit() int { return q.limit }

// Distinct reports whether duplicate records are collapsed.
func (q *Query) Distinct() bool { return q.distinct }

// IsCount reports whether the query projects a count.
func (q *Query) IsCount() bool { return q.count }

// IsExists reports whether the query projects existence.
func (q *Query) IsExists() bool { return q.exists }

// IsDelete reports whether matched records are deleted.
func (q *Query) IsDelete() bool { return q.delete }

// HasPostProcessing reports whether results need client-side sorting or
// pagination after the server returns them.
func (q *Query) HasPostProcessing() bool {
	return len(q.orderBy) > 0 || q.offset > 0 || q.limit > 0 || q.distinct
}
