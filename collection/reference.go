package collection

import (
	"github.com/supakorn-kn/propadmin/errors"
)

// Reference names a collection, the fields a screen wants from it and the
// column its search box filters on. It does not change once built.
type Reference struct {
	Name        string
	Projection  Projection
	SearchField string
	MatchType   MatchType
}

type ReferenceOption func(*Reference)

// WithMatchType overrides the default case-insensitive substring search.
func WithMatchType(mt MatchType) ReferenceOption {
	return func(r *Reference) {
		r.MatchType = mt
	}
}

func NewReference(name, projection, searchField string, opts ...ReferenceOption) (Reference, error) {

	if !ValidIdentifier(name) {
		return Reference{}, errors.CollectionInvalidError.New(name)
	}

	if searchField != "" && !ValidIdentifier(searchField) {
		return Reference{}, errors.ProjectionInvalidError.New("bad search field " + searchField)
	}

	parsed, err := ParseProjection(projection)
	if err != nil {
		return Reference{}, err
	}

	ref := Reference{
		Name:        name,
		Projection:  parsed,
		SearchField: searchField,
		MatchType:   PartialMatchType,
	}

	for _, opt := range opts {
		opt(&ref)
	}

	if !ref.MatchType.Valid() {
		return Reference{}, errors.MatchTypeInvalidError.New(ref.MatchType)
	}

	return ref, nil
}

// Request builds the backend query for one page.
func (r Reference) Request(page, pageSize int, searchTerm string) Request {

	from, to := Range(page, pageSize)

	return Request{
		Collection:  r.Name,
		Projection:  r.Projection,
		SearchField: r.SearchField,
		MatchType:   r.MatchType,
		SearchTerm:  searchTerm,
		From:        from,
		To:          to,
	}
}

// Touches reports whether rows of this reference read from the named
// collection, directly or through a relation.
func (r Reference) Touches(collectionName string) bool {

	if r.Name == collectionName {
		return true
	}

	for _, rel := range r.Projection.Relations {
		if rel.Collection == collectionName {
			return true
		}
	}

	return false
}
