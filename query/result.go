package query

import "github.com/supakorn-kn/propadmin/collection"

type Status uint8

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {

	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is a snapshot of a handle. Rows are shared with the cache and must
// not be modified.
type Result struct {
	Rows       []collection.Record
	Count      int
	Status     Status
	Err        error
	Page       int
	PageSize   int
	SearchTerm string

	// HasData is set once any fetch of the handle succeeded. Rows and Count
	// then hold the last data shown, even while loading or after an error.
	HasData bool
}

func (r Result) PageCount() int {
	return collection.PageCount(r.Count, r.PageSize)
}

// FirstLoad reports whether nothing has been shown yet and a fetch is running.
// Later fetches keep the previous rows visible instead.
func (r Result) FirstLoad() bool {
	return r.Status == StatusLoading && !r.HasData
}

// Empty reports a successful fetch without rows. It is not an error.
func (r Result) Empty() bool {
	return r.Status == StatusSuccess && len(r.Rows) == 0
}

func (r Result) EmptyMessage() string {

	switch {
	case r.SearchTerm != "":
		return "No results found"
	case r.Count > 0:
		return "No items on this page"
	default:
		return "No items yet"
	}
}
