package pageplan

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

const (
	_denseRankColumn    = "dense_rank____"
	_distinctRankColumn = "distinct_rank____"
	_distinctRankFunc   = "distinct_rank"
	_rootRankColumn     = "root_rank____"
)

// pagingStrategy renders the page query of one Strategy.
type pagingStrategy interface {
	// buildPage renders the query returning the rows of page pageIndex
	// (1-based) of pageSize root entities.
	buildPage(shape *QueryShape, d Dialect, pageIndex, pageSize int) (clause.Expr, error)
}

var _pagingStrategies = map[Strategy]pagingStrategy{
	StrategyNativeLimit:             nativeLimit{},
	StrategySingleColumnRank:        singleColumnRank{},
	StrategyMultiColumnDistinctRank: distinctRank{},
	StrategyMemoryPaging:            memoryPaging{},
}

// BuildPage builds the page query of shape for the given strategy.
//
// The page query selects every attribute of the root and of each fetched
// association, so that entities can be assembled from its rows alone.
func BuildPage(shape *QueryShape, d Dialect, strategy Strategy, pageIndex, pageSize int) (clause.Expr, error) {
	if pageIndex < 1 {
		return clause.Expr{}, fmt.Errorf("cannot build page query: invalid page index %d", pageIndex)
	}
	if pageSize < 1 {
		return clause.Expr{}, fmt.Errorf("cannot build page query: invalid page size %d", pageSize)
	}
	if pageIndex > maxPageIndex(pageSize) {
		return clause.Expr{}, fmt.Errorf("cannot build page query: page index %d of size %d is out of range", pageIndex, pageSize)
	}

	impl, ok := _pagingStrategies[strategy]
	if !ok {
		return clause.Expr{}, fmt.Errorf("cannot build page query: unknown paging strategy '%s'", strategy)
	}

	expr, err := impl.buildPage(shape, d, pageIndex, pageSize)
	if err != nil {
		return clause.Expr{}, fmt.Errorf("cannot build %s page query: %w", strategy, err)
	}

	return expr, nil
}

// selectQuery renders "select <columns>[, extra] from ... [where ...]".
func (s *QueryShape) selectQuery(extra string) (string, []any) {
	columns := s.selectColumns()
	if extra != "" {
		columns = append(columns, extra)
	}

	var sb strings.Builder
	sb.WriteString("select ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" ")
	sb.WriteString(s.fromClause(s.joins))

	where, vars := s.whereClause()
	if where != "" {
		sb.WriteString(" where ")
		sb.WriteString(where)
	}

	return sb.String(), vars
}

// selectColumns lists the columns of the root and of every fetched join,
// each aliased by its row key.
func (s *QueryShape) selectColumns() []string {
	var ret []string

	appendColumns := func(alias string, e *EntityType) {
		for _, attribute := range e.Attributes() {
			ret = append(ret, fmt.Sprintf("%s.%s as %s", alias, attribute.Column, rowKey(alias, attribute.Column)))
		}
	}

	appendColumns(_rootAlias, s.root)
	for _, j := range s.joins {
		if j.fetch {
			appendColumns(j.alias, j.association.Target)
		}
	}

	return ret
}

// orderings renders the requested order keys.
func (s *QueryShape) orderings() Orderings {
	ret := make(Orderings, 0, len(s.orderKeys)+1)
	for _, k := range s.orderKeys {
		ret = append(ret, OrderBy{
			Column:    k.alias() + "." + k.attribute.Column,
			Direction: k.spec.direction,
		})
	}

	return ret
}

// totalOrderings renders the requested order keys followed by the row
// identity tie-break, unless the order already ends up unique on it.
func (s *QueryShape) totalOrderings(d Dialect) Orderings {
	ret := s.orderings()

	tieBreak := d.tieBreak(s.root)
	for _, o := range ret {
		if o.Column == tieBreak {
			return ret
		}
	}

	return append(ret, OrderBy{Column: tieBreak, Direction: DirectionASC})
}
