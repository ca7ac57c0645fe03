package pageplan

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// singleColumnRank windows rows by a dense rank computed over the root order
// keys and the tie-break. All rows of one root share the rank because every
// ranked column belongs to the root.
type singleColumnRank struct{}

// buildPage - implements pagingStrategy.
func (singleColumnRank) buildPage(shape *QueryShape, d Dialect, pageIndex, pageSize int) (clause.Expr, error) {
	if !d.SingleColumnRank {
		return clause.Expr{}, fmt.Errorf("%w: dialect '%s' has no dense rank function", ErrUnsupportedPagingShape, d.Name)
	}
	if shape.orderedThroughToMany() {
		return clause.Expr{}, fmt.Errorf("%w: dense rank cannot order through a collection", ErrUnsupportedPagingShape)
	}

	rank := fmt.Sprintf("dense_rank() over(order by %s) %s", shape.totalOrderings(d).ToSQL(), _denseRankColumn)
	source, vars := shape.selectQuery(rank)

	return rankWindow(source, vars, _denseRankColumn, Orderings{{Column: _denseRankColumn, Direction: DirectionASC}}, pageIndex, pageSize)
}

// rankWindow wraps source, a select carrying rankColumn, into
//
//	select * from (source) page_ where <rank> <= ? and <rank> > ? order by <outer>
func rankWindow(source string, vars []any, rankColumn string, outer Orderings, pageIndex, pageSize int) (clause.Expr, error) {
	bounds, boundVars, err := windowBounds(rankColumn, pageIndex, pageSize).toSQLClause()
	if err != nil {
		return clause.Expr{}, err
	}

	return clause.Expr{
		SQL:  "select * from (" + source + ") page_ where " + bounds + " order by " + outer.ToSQL(),
		Vars: append(vars, boundVars...),
	}, nil
}
