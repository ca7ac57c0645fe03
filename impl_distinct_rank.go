package pageplan

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// distinctRank windows rows by the user-installed distinct-rank analytic
// function. Called with the root row identity over the total orderings, it
// numbers each row by the count of distinct roots seen so far. The smallest
// such number of a root is its position of first appearance, which every row
// of the root then shares:
//
//	select * from (
//	    select ranked_.*, min(distinct_rank____) over(partition by <root id>) root_rank____
//	    from (select ..., distinct_rank(<tie-break>) over(order by ...) distinct_rank____ ...) ranked_
//	) page_ where root_rank____ <= ? and root_rank____ > ? order by root_rank____, ...
type distinctRank struct{}

// buildPage - implements pagingStrategy.
func (distinctRank) buildPage(shape *QueryShape, d Dialect, pageIndex, pageSize int) (clause.Expr, error) {
	if !d.MultiColumnDistinctRank {
		return clause.Expr{}, fmt.Errorf("%w: dialect '%s' cannot host %s", ErrUnsupportedPagingShape, d.Name, _distinctRankFunc)
	}
	if !d.DistinctRankInstalled {
		return clause.Expr{}, fmt.Errorf("%w: %s is not installed", ErrUnsupportedPagingShape, _distinctRankFunc)
	}

	rank := fmt.Sprintf("%s(%s) over(order by %s) %s",
		_distinctRankFunc, d.tieBreak(shape.root), shape.totalOrderings(d).ToSQL(), _distinctRankColumn)
	ranked, vars := shape.selectQuery(rank)

	source := fmt.Sprintf("select ranked_.*, min(%s) over(partition by ranked_.%s) %s from (%s) ranked_",
		_distinctRankColumn, shape.idKey(), _rootRankColumn, ranked)

	// Rows of one root keep their relative order by the selected columns of
	// the collection order keys.
	outer := Orderings{{Column: _rootRankColumn, Direction: DirectionASC}}
	for _, k := range shape.orderKeys {
		if !k.throughToMany || !k.join.fetch {
			continue
		}

		outer = append(outer, OrderBy{
			Column:    rowKey(k.alias(), k.attribute.Column),
			Direction: k.spec.direction,
		})
	}

	return rankWindow(source, vars, _rootRankColumn, outer, pageIndex, pageSize)
}
