package types

// MapCriteria discriminates what a map containment predicate inspects. It
// is passed as the structuring argument of map CONTAINING /
// NOT_CONTAINING parts.
type MapCriteria int

const (
	// MapCriteriaKey matches when the map contains the given key.
	MapCriteriaKey MapCriteria = iota + 1
	// MapCriteriaValue matches when the map contains the given value.
	MapCriteriaValue
	// MapCriteriaKeyValuePair matches when the map holds exactly the
	// given value under the given key.
	MapCriteriaKeyValuePair
)

func (c MapCriteria) String() string {
	switch c {
	case MapCriteriaKey:
		return "KEY"
	case MapCriteriaValue:
		return "VALUE"
	case MapCriteriaKeyValuePair:
		return "KEY_VALUE_PAIR"
	}
	return "unknown"
}
