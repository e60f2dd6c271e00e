package query

import (
	"fmt"

	"github.com/supakorn-kn/propadmin/collection"
)

// Key is the full parameter tuple of one page fetch. Two fetches with equal
// keys are interchangeable.
type Key struct {
	Collection  string
	Projection  string
	SearchField string
	MatchType   collection.MatchType
	Page        int
	PageSize    int
	SearchTerm  string
}

func NewKey(ref collection.Reference, page, pageSize int, searchTerm string) Key {

	return Key{
		Collection:  ref.Name,
		Projection:  ref.Projection.String(),
		SearchField: ref.SearchField,
		MatchType:   ref.MatchType,
		Page:        page,
		PageSize:    pageSize,
		SearchTerm:  searchTerm,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d|%q", k.Collection, k.Projection, k.SearchField, k.MatchType, k.Page, k.PageSize, k.SearchTerm)
}
