package pagination

// PageSize is the fixed number of results per chat page. Three asset
// blocks is the most that fits comfortably in one message bubble.
const PageSize = 3

// TotalPages returns ceil(total/size); zero items still occupy one page.
func TotalPages(total, size int) int {
	if total <= 0 {
		return 1
	}
	pages := total / size
	if total%size > 0 {
		pages++
	}
	return pages
}

// Clamp keeps a zero-based page cursor inside [0, totalPages-1].
func Clamp(page, totalPages int) int {
	if page < 0 {
		return 0
	}
	if page > totalPages-1 {
		return totalPages - 1
	}
	return page
}

// Bounds returns the half-open slice bounds of a zero-based page.
func Bounds(page, size, total int) (start, end int) {
	start = page * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}
