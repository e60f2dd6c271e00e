// Package collection describes what a list screen asks of the backend: a named
// collection, the fields to return, an optional search column and a row range.
package collection

import "context"

const (
	// IDField is the primary key every collection carries.
	IDField = "id"
	// CreatedAtField orders every listing, newest first.
	CreatedAtField = "created_at"
)

// Record is one row shaped by the requested projection. Relations are nested
// Record values under their alias.
type Record = map[string]any

// Request is a single backend query over an inclusive row range.
type Request struct {
	Collection  string
	Projection  Projection
	SearchField string
	MatchType   MatchType
	SearchTerm  string
	From        int
	To          int
}

// Filtered reports whether the search filter applies to this request.
func (r Request) Filtered() bool {
	return r.SearchTerm != "" && r.SearchField != ""
}

// Limit is the number of rows the range asks for.
func (r Request) Limit() int {
	return r.To - r.From + 1
}

// Page is the answer to a Request: the rows of the range and the number of
// rows matching the filter in the whole collection.
type Page struct {
	Rows  []Record `json:"rows"`
	Count int      `json:"count"`
}

// Backend executes list queries. Implementations order rows by created_at
// descending (id descending on ties), apply the search filter only when
// Request.Filtered is true, and answer an out of range request with zero rows
// and the real count.
type Backend interface {
	Query(ctx context.Context, req Request) (Page, error)
}

// Deleter is implemented by backends that can remove a record by id.
type Deleter interface {
	Delete(ctx context.Context, collectionName string, id string) error
}
