package views

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 10

// MaxPageSize caps caller supplied page sizes.
const MaxPageSize = 100

// Page is one page of a list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns the 1-based page of items. Pages past the end are empty
// but still report the totals.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Items:      make([]T, 0),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Items = append(p.Items, items[start:end]...)
	return p
}
