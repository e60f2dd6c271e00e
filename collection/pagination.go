package collection

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Range returns the inclusive row range of a 1-indexed page.
func Range(page, pageSize int) (from, to int) {

	from = (page - 1) * pageSize
	to = from + pageSize - 1

	return
}

// PageCount returns how many pages total rows span. It is 0 for an empty
// collection.
func PageCount(total, pageSize int) int {

	if total <= 0 || pageSize <= 0 {
		return 0
	}

	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}

	return pages
}
