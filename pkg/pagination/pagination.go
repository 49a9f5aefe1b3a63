// Package pagination provides page cursor arithmetic and page size configuration
// for zero-indexed table views.
package pagination

// PageCount returns the number of pages needed to show total rows at pageSize
// rows per page. An empty result has zero pages.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	count := total / pageSize
	if total%pageSize != 0 {
		count++
	}
	return count
}

// Clamp bounds a zero-based page index to [0, pageCount-1].
// With no pages the only valid index is 0.
func Clamp(index, pageCount int) int {
	if index < 0 || pageCount <= 0 {
		return 0
	}
	if index > pageCount-1 {
		return pageCount - 1
	}
	return index
}

// Window returns the half-open row range [start, end) for the page at index.
// The range is truncated to total and is empty when the page lies past the end.
func Window(total, index, pageSize int) (start, end int) {
	if pageSize <= 0 || index < 0 {
		return 0, 0
	}
	start = min(index*pageSize, total)
	end = min(start+pageSize, total)
	return start, end
}

// Reindex maps a page index from one page size to another so the first row
// of the current page stays visible.
func Reindex(index, oldSize, newSize int) int {
	if newSize <= 0 {
		return 0
	}
	return (index * oldSize) / newSize
}
