package types

// IndexType is the value type a secondary index covers.
type IndexType int

const (
	IndexNumeric IndexType = iota
	IndexString
	IndexBlob
	IndexGeo2DSphere
)

func (t IndexType) String() string {
	switch t {
	case IndexNumeric:
		return "numeric"
	case IndexString:
		return "string"
	case IndexBlob:
		return "blob"
	case IndexGeo2DSphere:
		return "geo2dsphere"
	}
	return "unknown"
}

// IndexCollectionType distinguishes indexes over scalar bins from indexes
// over the keys, values or elements of a compound bin.
type IndexCollectionType int

const (
	IndexCollectionNone IndexCollectionType = iota
	IndexCollectionList
	IndexCollectionMapKeys
	IndexCollectionMapValues
)

func (t IndexCollectionType) String() string {
	switch t {
	case IndexCollectionNone:
		return "none"
	case IndexCollectionList:
		return "list"
	case IndexCollectionMapKeys:
		return "mapkeys"
	case IndexCollectionMapValues:
		return "mapvalues"
	}
	return "unknown"
}

// IndexDescriptor describes one server-maintained secondary index. It is
// owned by the index cache collaborator; this core only reads it to pick
// the best pushdown candidate.
type IndexDescriptor struct {
	Name       string
	Namespace  string
	Set        string
	Bin        string
	Type       IndexType
	Collection IndexCollectionType
	CTX        []CTXElement
	// Ratio is entries per unique bin value, refreshed periodically.
	// Lower means more selective. Zero means unknown.
	Ratio float64
}
