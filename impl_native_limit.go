package pageplan

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// nativeLimit bounds the ordered query with LIMIT/OFFSET. Backends offering
// only ROWNUM get the nested form, where the order is applied before the row
// numbers are.
type nativeLimit struct{}

// buildPage - implements pagingStrategy.
func (nativeLimit) buildPage(shape *QueryShape, d Dialect, pageIndex, pageSize int) (clause.Expr, error) {
	base, vars := shape.selectQuery("")
	ordered := base + " order by " + shape.totalOrderings(d).ToSQL()
	offset := (pageIndex - 1) * pageSize

	switch {
	case d.NativeOffsetLimit:
		return clause.Expr{
			SQL:  ordered + " limit ? offset ?",
			Vars: append(vars, pageSize, offset),
		}, nil
	case d.RownumOnly:
		return clause.Expr{
			SQL: "select * from ( select row_.*, rownum rownum_ from ( " + ordered +
				" ) row_ where rownum <= ?) where rownum_ > ?",
			Vars: append(vars, offset+pageSize, offset),
		}, nil
	default:
		return clause.Expr{}, fmt.Errorf("%w: dialect '%s' cannot limit rows", ErrUnsupportedPagingShape, d.Name)
	}
}
