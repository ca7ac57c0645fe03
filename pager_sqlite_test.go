package pageplan

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var _sqliteEmployees = []struct {
	id         int
	firstName  string
	lastName   any
	gender     string
	department int
}{
	{1, "Alarak", nil, "MALE", 1},
	{2, "Artanis", nil, "MALE", 1},
	{3, "Fenix", nil, "MALE", 1},
	{4, "Jim", "Raynor", "MALE", 2},
	{5, "Kerrigan", "Sarah", "FEMALE", 3},
	{6, "Matt", "Horner", "MALE", 2},
	{7, "Mohandar", nil, "MALE", 1},
	{8, "Nova", "Terra", "FEMALE", 2},
	{9, "Rory", "Swann", "MALE", 2},
	{10, "Selendis", nil, "FEMALE", 1},
	{11, "Tychus", "Findlay", "MALE", 2},
	{12, "Zeratul", nil, "MALE", 1},
}

// leaveCount is the number of annual leaves of an employee; Selendis has none.
func leaveCount(employeeID int) int {
	if employeeID == 10 {
		return 0
	}

	return employeeID%3 + 1
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every connection to ":memory:" is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	statements := []string{
		"create table DEPARTMENT (DEPARTMENT_ID integer primary key, NAME text not null)",
		"create table EMPLOYEE (EMPLOYEE_ID integer primary key, FIRST_NAME text not null, LAST_NAME text, " +
			"GENDER text not null, DEPARTMENT_ID integer references DEPARTMENT, SUPERVISOR_ID integer references EMPLOYEE)",
		"create table ANNUAL_LEAVE (ANNUAL_LEAVE_ID integer primary key, EMPLOYEE_ID integer not null references EMPLOYEE, " +
			"START_TIME text not null, END_TIME text not null, STATE text not null)",
		"insert into DEPARTMENT values (1, 'Protoss'), (2, 'Terran'), (3, 'Zerg')",
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	for _, e := range _sqliteEmployees {
		require.NoError(t, db.Exec("insert into EMPLOYEE values (?, ?, ?, ?, ?, null)",
			e.id, e.firstName, e.lastName, e.gender, e.department).Error)

		for j := 0; j < leaveCount(e.id); j++ {
			state := "PENDING"
			if j == 1 {
				state = "REJECTED"
			}
			require.NoError(t, db.Exec("insert into ANNUAL_LEAVE values (?, ?, ?, ?, ?)",
				e.id*10+j, e.id,
				fmt.Sprintf("2015-%02d-01 09:00", j+1),
				fmt.Sprintf("2015-%02d-02 18:00", j+1),
				state,
			).Error)
		}
	}

	return db
}

func firstNames(t *testing.T, entities []*Entity) []string {
	t.Helper()

	ret := make([]string, 0, len(entities))
	for _, e := range entities {
		name, ok := e.Get("firstName")
		require.True(t, ok)
		ret = append(ret, name.(string))
	}

	return ret
}

func Test_Pager_SQLite(t *testing.T) {
	employee, _, _ := newTestSchema()

	tests := []struct {
		name         string
		shape        *QueryBuilder
		dialect      func(Dialect) Dialect
		memory       bool
		concurrent   bool
		pageIndex    int
		pageSize     int
		wantStrategy Strategy
		wantTotal    int64
		wantIndex    int
		wantNames    []string
		wantLeaves   bool
	}{
		{
			name:         "native limit",
			shape:        NewQuery(employee).With(Order("firstName")),
			pageIndex:    2,
			pageSize:     4,
			wantStrategy: StrategyNativeLimit,
			wantTotal:    12,
			wantIndex:    2,
			wantNames:    []string{"Kerrigan", "Matt", "Mohandar", "Nova"},
		},
		{
			name:         "single column rank over a fetched collection",
			shape:        NewQuery(employee).With(Fetch("annualLeaves"), Order("firstName")),
			pageIndex:    3,
			pageSize:     4,
			wantStrategy: StrategySingleColumnRank,
			wantTotal:    12,
			wantIndex:    3,
			wantNames:    []string{"Rory", "Selendis", "Tychus", "Zeratul"},
			wantLeaves:   true,
		},
		{
			name:  "single column rank without native limit",
			shape: NewQuery(employee).With(Order("firstName").Desc()),
			dialect: func(d Dialect) Dialect {
				return d.WithCapability(Capability{SingleColumnRank: true})
			},
			pageIndex:    1,
			pageSize:     3,
			wantStrategy: StrategySingleColumnRank,
			wantTotal:    12,
			wantIndex:    1,
			wantNames:    []string{"Zeratul", "Tychus", "Selendis"},
		},
		{
			name: "memory paging when ordered through the collection",
			shape: NewQuery(employee).With(
				Fetch("annualLeaves"),
				Order("firstName"),
				Order("annualLeaves", "startTime").Desc(),
			),
			memory:       true,
			pageIndex:    1,
			pageSize:     4,
			wantStrategy: StrategyMemoryPaging,
			wantTotal:    12,
			wantIndex:    1,
			wantNames:    []string{"Alarak", "Artanis", "Fenix", "Jim"},
			wantLeaves:   true,
		},
		{
			name:         "required collection excludes employees without leaves",
			shape:        NewQuery(employee).With(Fetch("annualLeaves").Required(), Order("firstName")),
			pageIndex:    3,
			pageSize:     4,
			wantStrategy: StrategySingleColumnRank,
			wantTotal:    11,
			wantIndex:    3,
			wantNames:    []string{"Rory", "Tychus", "Zeratul"},
			wantLeaves:   true,
		},
		{
			name: "filter through the collection",
			shape: NewQuery(employee).
				Where("{annualLeaves}.STATE = ?", "REJECTED").
				With(Order("firstName")),
			pageIndex:    1,
			pageSize:     10,
			wantStrategy: StrategySingleColumnRank,
			wantTotal:    7,
			wantIndex:    1,
			wantNames:    []string{"Alarak", "Artanis", "Jim", "Kerrigan", "Mohandar", "Nova", "Tychus"},
		},
		{
			name: "memory paging at the largest page index",
			shape: NewQuery(employee).With(
				Fetch("annualLeaves"),
				Order("annualLeaves", "startTime").Desc(),
			),
			memory:       true,
			pageIndex:    math.MaxInt,
			pageSize:     10,
			wantStrategy: StrategyMemoryPaging,
			wantTotal:    12,
			wantIndex:    2,
			wantNames:    []string{},
			wantLeaves:   true,
		},
		{
			name:         "native limit at the largest page index",
			shape:        NewQuery(employee).With(Order("firstName")),
			concurrent:   true,
			pageIndex:    math.MaxInt,
			pageSize:     10,
			wantStrategy: StrategyNativeLimit,
			wantTotal:    12,
			wantIndex:    2,
			wantNames:    []string{},
		},
		{
			name:         "beyond the last page",
			shape:        NewQuery(employee).With(Fetch("annualLeaves"), Order("firstName")),
			concurrent:   true,
			pageIndex:    8,
			pageSize:     5,
			wantStrategy: StrategySingleColumnRank,
			wantTotal:    12,
			wantIndex:    3,
			wantNames:    []string{},
			wantLeaves:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newSQLiteDB(t)

			d, err := Setup(context.Background(), db, nil)
			require.NoError(t, err)
			require.Equal(t, DialectSQLite, d.Name)
			if tt.dialect != nil {
				d = tt.dialect(d)
			}

			shape, err := tt.shape.Build()
			require.NoError(t, err)

			recorder := NewRecorder(NewGORMExecutor(db.Debug()))
			pager := NewPager(recorder, d).
				WithMemoryPaging(tt.memory).
				WithConcurrentQueries(tt.concurrent)

			plan, err := pager.Plan(shape, tt.pageIndex, tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStrategy, plan.Strategy)

			page, err := pager.Fetch(context.Background(), shape, tt.pageIndex, tt.pageSize)
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, page.TotalRowCount)
			assert.Equal(t, tt.wantIndex, page.ActualPageIndex)
			assert.Equal(t, tt.wantNames, firstNames(t, page.Entities))

			for _, e := range page.Entities {
				assert.Equal(t, tt.wantLeaves, e.IsLoaded("annualLeaves"))
				if !tt.wantLeaves {
					continue
				}

				leaves, _ := e.Collection("annualLeaves")
				id := int(e.ID().(int64))
				require.Len(t, leaves, leaveCount(id), e.String())
			}

			if tt.wantStrategy == StrategyMemoryPaging {
				assert.Len(t, recorder.Statements(), 1)
			} else {
				assert.Len(t, recorder.Statements(), 2)
			}
		})
	}
}

func Test_Pager_SQLite_CollectionOrder(t *testing.T) {
	employee, _, _ := newTestSchema()
	db := newSQLiteDB(t)

	shape, err := NewQuery(employee).
		With(Fetch("annualLeaves"), Order("firstName"), Order("annualLeaves", "startTime").Desc()).
		Build()
	require.NoError(t, err)

	page, err := NewPager(NewGORMExecutor(db), mustDialect(t, DialectSQLite)).
		WithMemoryPaging(true).
		Fetch(context.Background(), shape, 1, 2)
	require.NoError(t, err)

	// Artanis (id 2) has three leaves, latest first.
	require.Equal(t, []string{"Alarak", "Artanis"}, firstNames(t, page.Entities))
	leaves, ok := page.Entities[1].Collection("annualLeaves")
	require.True(t, ok)

	var ids []int64
	for _, leave := range leaves {
		ids = append(ids, leave.ID().(int64))
	}
	assert.Equal(t, []int64{22, 21, 20}, ids)
}

func Test_Pager_SQLite_ToOneFetch(t *testing.T) {
	employee, _, _ := newTestSchema()
	db := newSQLiteDB(t)

	shape, err := NewQuery(employee).
		With(Fetch("department"), Order("department", "name"), Order("firstName")).
		Build()
	require.NoError(t, err)

	pager := NewPager(NewGORMExecutor(db), mustDialect(t, DialectSQLite))

	plan, err := pager.Plan(shape, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, StrategyNativeLimit, plan.Strategy)

	page, err := pager.Fetch(context.Background(), shape, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alarak", "Artanis", "Fenix", "Mohandar"}, firstNames(t, page.Entities))

	first, ok := page.Entities[0].Reference("department")
	require.True(t, ok)
	for _, e := range page.Entities[1:] {
		department, ok := e.Reference("department")
		require.True(t, ok)
		assert.Same(t, first, department)
	}

	name, _ := first.Get("name")
	assert.Equal(t, "Protoss", name)
}
