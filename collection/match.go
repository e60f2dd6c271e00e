package collection

import (
	"strings"

	"github.com/supakorn-kn/propadmin/errors"
)

type MatchType uint8

const (
	EqualMatchType MatchType = iota
	PartialMatchType
	StartWithMatchType
	EndWithMatchType
)

func (mt MatchType) Valid() bool {
	return mt <= EndWithMatchType
}

func (mt MatchType) String() string {

	switch mt {
	case EqualMatchType:
		return "equal"
	case PartialMatchType:
		return "partial"
	case StartWithMatchType:
		return "start_with"
	case EndWithMatchType:
		return "end_with"
	default:
		return "unknown"
	}
}

// ParseMatchType accepts the names returned by String.
func ParseMatchType(name string) (MatchType, error) {

	for mt := EqualMatchType; mt <= EndWithMatchType; mt++ {
		if mt.String() == strings.ToLower(name) {
			return mt, nil
		}
	}

	return 0, errors.MatchTypeInvalidError.New(name)
}

// Match applies the match type to a value. Equal is case-sensitive, the
// others ignore case.
func (mt MatchType) Match(value, term string) bool {

	if mt == EqualMatchType {
		return value == term
	}

	value = strings.ToLower(value)
	term = strings.ToLower(term)

	switch mt {
	case PartialMatchType:
		return strings.Contains(value, term)
	case StartWithMatchType:
		return strings.HasPrefix(value, term)
	case EndWithMatchType:
		return strings.HasSuffix(value, term)
	default:
		return false
	}
}
