package pageplan

// Strategy is a way of bounding a paging query to one page.
type Strategy string

const (
	// StrategyNativeLimit bounds the query with LIMIT/OFFSET.
	StrategyNativeLimit Strategy = "NATIVE_LIMIT"
	// StrategySingleColumnRank windows by a dense rank over root-only order keys.
	StrategySingleColumnRank Strategy = "SINGLE_COLUMN_RANK"
	// StrategyMultiColumnDistinctRank windows by the distinct-rank function,
	// which ranks every row of one root identically.
	StrategyMultiColumnDistinctRank Strategy = "MULTI_COLUMN_DISTINCT_RANK"
	// StrategyMemoryPaging runs the unbounded ordered query and windows root
	// groups in process memory.
	StrategyMemoryPaging Strategy = "MEMORY_PAGING"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyNativeLimit, StrategySingleColumnRank, StrategyMultiColumnDistinctRank, StrategyMemoryPaging:
		return true
	default:
		return false
	}
}

// SelectStrategy picks the paging strategy for shape on a backend with caps.
// It is pure and total; whether memory paging is allowed is decided by the
// caller.
//
// A rank computed per physical row is a valid root window only when it is
// identical for every row of one root: true for root-only order keys
// (dense rank) and by definition for the distinct-rank function.
func SelectStrategy(shape *QueryShape, caps Capability) Strategy {
	if !shape.hasDuplicatingJoin() && caps.NativeOffsetLimit {
		return StrategyNativeLimit
	}

	// ROWNUM-only backends and duplicating joins both need windowing.
	if !shape.orderedThroughToMany() {
		if caps.SingleColumnRank {
			return StrategySingleColumnRank
		}

		return StrategyMemoryPaging
	}

	if caps.MultiColumnDistinctRank && caps.DistinctRankInstalled {
		return StrategyMultiColumnDistinctRank
	}

	return StrategyMemoryPaging
}
