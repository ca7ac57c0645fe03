package pageplan

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

//go:embed sql/oracle_distinct_rank.sql
var _oracleDistinctRankDDL string

// distinctRankStatements splits the DDL script on lines holding a single "/",
// the SQL*Plus statement terminator.
func distinctRankStatements() []string {
	var (
		ret     []string
		current strings.Builder
	)

	for _, line := range strings.Split(_oracleDistinctRankDDL, "\n") {
		if strings.TrimSpace(line) == "/" {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				ret = append(ret, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		ret = append(ret, stmt)
	}

	return ret
}

// InstallDistinctRank creates or replaces the distinct-rank analytic function
// and returns d flagged as installed. It is a deploy-time action; running it
// again is harmless.
func InstallDistinctRank(ctx context.Context, db *gorm.DB, d Dialect) (Dialect, error) {
	if !d.MultiColumnDistinctRank {
		return d, fmt.Errorf("%w: dialect '%s' cannot host %s", ErrUnsupportedPagingShape, d.Name, _distinctRankFunc)
	}

	for i, stmt := range distinctRankStatements() {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return d, fmt.Errorf("cannot install %s (statement %d): %w", _distinctRankFunc, i+1, err)
		}
	}

	return d.WithDistinctRankInstalled(true), nil
}

// ProbeDistinctRank reports whether the distinct-rank function exists in the
// current schema.
func ProbeDistinctRank(ctx context.Context, db *gorm.DB) (bool, error) {
	var count int64

	err := db.WithContext(ctx).
		Raw("select count(*) from user_objects where object_name = ? and object_type = ?",
			strings.ToUpper(_distinctRankFunc), "FUNCTION").
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("cannot probe %s: %w", _distinctRankFunc, err)
	}

	return count > 0, nil
}
