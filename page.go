package pageplan

// Page is one page of root entities with pagination metadata.
type Page[T any] struct {
	// Entities of the page, at most PageSize of them.
	Entities []T
	// ActualPageIndex is the requested index clamped into
	// [1, max(1, TotalPageCount)].
	ActualPageIndex int
	// PageSize used for the query.
	PageSize int
	// TotalRowCount is the number of root entities matching the filter.
	TotalRowCount int64
	// TotalPageCount is ceil(TotalRowCount / PageSize).
	TotalPageCount int
}

// NewPage builds a page for the requested index. When the requested index
// lies beyond the last page the returned page is empty, but ActualPageIndex
// still reports the clamped index.
func NewPage[T any](entities []T, requestedIndex, pageSize int, totalRowCount int64) *Page[T] {
	totalPages := totalPageCount(totalRowCount, pageSize)

	if requestedIndex > totalPages || entities == nil {
		entities = []T{}
	}

	return &Page[T]{
		Entities:        entities,
		ActualPageIndex: clampPageIndex(requestedIndex, totalPages),
		PageSize:        pageSize,
		TotalRowCount:   totalRowCount,
		TotalPageCount:  totalPages,
	}
}

// IsEmpty reports whether the page holds no entities.
func (p *Page[T]) IsEmpty() bool {
	return p == nil || len(p.Entities) == 0
}

// HasNext reports whether a page follows the current one.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.ActualPageIndex < p.TotalPageCount
}

// MapPage converts page entities with fn, keeping the metadata.
func MapPage[T, R any](page *Page[T], fn func(T) (R, error)) (*Page[R], error) {
	ret := &Page[R]{
		Entities:        make([]R, 0, len(page.Entities)),
		ActualPageIndex: page.ActualPageIndex,
		PageSize:        page.PageSize,
		TotalRowCount:   page.TotalRowCount,
		TotalPageCount:  page.TotalPageCount,
	}

	for _, entity := range page.Entities {
		mapped, err := fn(entity)
		if err != nil {
			return nil, err
		}
		ret.Entities = append(ret.Entities, mapped)
	}

	return ret, nil
}

func totalPageCount(totalRowCount int64, pageSize int) int {
	if pageSize < 1 || totalRowCount <= 0 {
		return 0
	}

	return int((totalRowCount + int64(pageSize) - 1) / int64(pageSize))
}

func clampPageIndex(pageIndex, totalPages int) int {
	return min(max(pageIndex, 1), max(totalPages, 1))
}
