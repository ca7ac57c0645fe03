package pageplan

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Capability describes the paging primitives of a backend. It is set once
// per backend connection and only read afterwards.
type Capability struct {
	// NativeOffsetLimit is true for backends accepting LIMIT/OFFSET.
	NativeOffsetLimit bool
	// RownumOnly is true for backends that can bound rows only through
	// ROWNUM, which is assigned before ORDER BY applies.
	RownumOnly bool
	// SingleColumnRank is true when a dense ranking analytic function exists.
	SingleColumnRank bool
	// MultiColumnDistinctRank is true when the backend can host the
	// user-installable distinct-rank analytic function.
	MultiColumnDistinctRank bool
	// DistinctRankInstalled is true once that function has been installed.
	DistinctRankInstalled bool
}

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
	DialectHSQLDB   = "hsqldb"
	DialectOracle   = "oracle"
)

// Dialect is a named backend with its paging capabilities. Dialect is a
// value type: modifiers return copies.
type Dialect struct {
	Name string
	Capability

	// rowID names the pseudo-column identifying a physical row. When empty
	// the root identifier column is used as the tie-break instead.
	rowID string
}

var _dialects = map[string]Dialect{
	DialectPostgres: {
		Name:       DialectPostgres,
		Capability: Capability{NativeOffsetLimit: true, SingleColumnRank: true},
	},
	DialectMySQL: {
		Name:       DialectMySQL,
		Capability: Capability{NativeOffsetLimit: true, SingleColumnRank: true},
	},
	DialectSQLite: {
		Name:       DialectSQLite,
		Capability: Capability{NativeOffsetLimit: true, SingleColumnRank: true},
	},
	DialectHSQLDB: {
		Name:       DialectHSQLDB,
		Capability: Capability{NativeOffsetLimit: true},
	},
	DialectOracle: {
		Name: DialectOracle,
		Capability: Capability{
			RownumOnly:              true,
			SingleColumnRank:        true,
			MultiColumnDistinctRank: true,
		},
		rowID: "rowid",
	},
}

// LookupDialect returns the preset registered under name.
func LookupDialect(name string) (Dialect, error) {
	d, ok := _dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Dialect{}, fmt.Errorf("unknown dialect '%s'. closest: '%s'", name, closestName(name, lo.Keys(_dialects)))
	}

	return d, nil
}

// DialectFor resolves the preset matching the gorm dialector of db.
func DialectFor(db *gorm.DB) (Dialect, error) {
	if db == nil || db.Dialector == nil {
		return Dialect{}, fmt.Errorf("cannot resolve dialect: gorm dialector is not set")
	}

	return LookupDialect(db.Dialector.Name())
}

// WithCapability returns a copy of the dialect with the given capability.
func (d Dialect) WithCapability(capability Capability) Dialect {
	d.Capability = capability

	return d
}

// WithDistinctRankInstalled returns a copy flagged with the installation
// state of the distinct-rank function.
func (d Dialect) WithDistinctRankInstalled(installed bool) Dialect {
	d.DistinctRankInstalled = installed

	return d
}

// tieBreak returns the synthetic row-identity column of the root alias.
func (d Dialect) tieBreak(root *EntityType) string {
	return _rootAlias + "." + lo.Ternary(d.rowID != "", d.rowID, root.ID.Column)
}
