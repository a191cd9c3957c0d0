package pagination

const (
	// DefaultSize is the storefront grid size when a view does not set one.
	DefaultSize = 12
	// MaxSize caps how many items a single view page may show.
	MaxSize = 100
)

// Window describes the visible slice of an already-fetched result set.
type Window struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// NormalizeSize enforces the configured default and maximum page sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// NormalizePage clamps the requested page to at least 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// TotalPages returns ceil(total/size); an empty set has zero pages.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Page returns items[(page-1)*size : page*size]. Pages outside the set yield an empty slice.
func Page[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Slice pages items and reports the window that was applied.
func Slice[T any](items []T, page, size int) ([]T, Window) {
	size = NormalizeSize(size)
	page = NormalizePage(page)
	total := TotalPages(len(items), size)
	return Page(items, page, size), Window{
		Page:       page,
		Size:       size,
		TotalItems: len(items),
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}
