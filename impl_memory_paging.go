package pageplan

import (
	"gorm.io/gorm/clause"
)

// memoryPaging renders the unbounded ordered query. The window is applied
// afterwards by MemoryPager over the root groups of the result.
type memoryPaging struct{}

// buildPage - implements pagingStrategy.
func (memoryPaging) buildPage(shape *QueryShape, d Dialect, _, _ int) (clause.Expr, error) {
	base, vars := shape.selectQuery("")

	return clause.Expr{
		SQL:  base + " order by " + shape.totalOrderings(d).ToSQL(),
		Vars: vars,
	}, nil
}
