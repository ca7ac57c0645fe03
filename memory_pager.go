package pageplan

import (
	"fmt"
	"iter"

	"github.com/spf13/cast"
)

// MemoryPager windows an unbounded ordered row stream by root entity. It is
// the fallback for shapes the backend cannot window by itself and holds the
// whole result in memory for the duration of one Page call.
type MemoryPager struct {
	// idKey is the row key of the root identity.
	idKey string
}

func NewMemoryPager(shape *QueryShape) *MemoryPager {
	return &MemoryPager{idKey: shape.idKey()}
}

// Page consumes rows once, groups them by root identity in order of first
// appearance and returns the rows of root groups
// [(pageIndex-1)*pageSize, pageIndex*pageSize) together with the number of
// groups. Rows keep their arrival order within a group.
func (p *MemoryPager) Page(rows iter.Seq2[Row, error], pageIndex, pageSize int) ([]Row, int64, error) {
	if pageIndex < 1 || pageSize < 1 {
		return nil, 0, fmt.Errorf("invalid memory page %d of size %d", pageIndex, pageSize)
	}

	var (
		groups [][]Row
		index  = make(map[string]int)
	)

	for row, err := range rows {
		if err != nil {
			return nil, 0, err
		}

		id, err := identity(row[p.idKey])
		if err != nil {
			return nil, 0, fmt.Errorf("cannot read root identity '%s': %w", p.idKey, err)
		}

		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], row)
	}

	total := int64(len(groups))
	if pageIndex > totalPageCount(total, pageSize) {
		return nil, total, nil
	}
	from := (pageIndex - 1) * pageSize
	to := min(from+pageSize, len(groups))

	var ret []Row
	for _, group := range groups[from:to] {
		ret = append(ret, group...)
	}

	return ret, total, nil
}

// identity converts a scanned identifier into a comparable key. Drivers
// disagree on numeric column types, so 7, int64(7) and "7" map to one key.
func identity(value any) (string, error) {
	if value == nil {
		return "", fmt.Errorf("identifier is null")
	}

	return cast.ToStringE(value)
}
