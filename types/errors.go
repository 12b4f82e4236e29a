package types

import "fmt"

// UnsupportedKeywordError reports a method-name keyword with no derivation
// rule. This is a method-signature error: it is raised at query-creation
// time and is never recoverable.
type UnsupportedKeywordError struct {
	Keyword string
	Method  string
}

func (e *UnsupportedKeywordError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("unsupported query keyword %q in method %q", e.Keyword, e.Method)
	}
	return fmt.Sprintf("unsupported query keyword %q", e.Keyword)
}

// UnsupportedOperationError reports an operator/property-shape combination
// that has no qualifier construction rule.
type UnsupportedOperationError struct {
	Op    FilterOperation
	Shape string
	Path  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %s is not supported on %s property %q", e.Op, e.Shape, e.Path)
}

// IllegalArgumentError reports a pre-flight validation failure: wrong
// argument count, wrong argument type, or an invalid argument combination
// for the operator. It is always surfaced before any database call.
type IllegalArgumentError struct {
	Part   string
	Op     FilterOperation
	Reason string
}

func (e *IllegalArgumentError) Error() string {
	return fmt.Sprintf("invalid query arguments for %q %s: %s", e.Part, e.Op, e.Reason)
}

// NewIllegalArgument builds an IllegalArgumentError with a formatted reason.
func NewIllegalArgument(part string, op FilterOperation, format string, args ...any) *IllegalArgumentError {
	return &IllegalArgumentError{Part: part, Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ScanDisabledError reports an index-ineligible query attempted while
// scans are administratively disabled. It is a policy rejection, never
// retried.
type ScanDisabledError struct {
	Namespace string
	Set       string
}

func (e *ScanDisabledError) Error() string {
	return fmt.Sprintf("query on %s.%s requires a scan but scans are disabled; "+
		"create a matching secondary index or enable scans explicitly", e.Namespace, e.Set)
}
