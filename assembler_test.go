package pageplan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employeeRow(id any, firstName string, lastName any, gender string) Row {
	return Row{
		"t0_employee_id": id,
		"t0_first_name":  firstName,
		"t0_last_name":   lastName,
		"t0_gender":      gender,
	}
}

// with adds the columns of an annual leave joined under alias.
func (r Row) with(alias string, id any, start, end, state any) Row {
	ret := make(Row, len(r)+4)
	for k, v := range r {
		ret[k] = v
	}
	ret[alias+"_annual_leave_id"] = id
	ret[alias+"_start_time"] = start
	ret[alias+"_end_time"] = end
	ret[alias+"_state"] = state

	return ret
}

func Test_Assemble(t *testing.T) {
	employee, _, _ := newTestSchema()
	shape, err := NewQuery(employee).
		With(Fetch("annualLeaves"), Order("firstName")).
		Build()
	require.NoError(t, err)

	matt := employeeRow(1, "Matt", "Horner", "MALE")
	jim := employeeRow(2, "Jim", "Raynor", "MALE")
	nova := employeeRow(int64(3), "Nova", nil, "FEMALE")

	rows := []Row{
		matt.with("t1", 10, "2015-11-15 09:00", "2015-11-15 11:00", "PENDING"),
		jim.with("t1", 20, "2015-01-07 09:00", "2015-02-28 18:00", "REJECTED"),
		matt.with("t1", 11, "2015-10-31 09:00", "2015-10-31 18:00", "PENDING"),
		nova.with("t1", nil, nil, nil, nil),
		// Repeated row, e.g. produced by another collection join.
		matt.with("t1", 10, "2015-11-15 09:00", "2015-11-15 11:00", "PENDING"),
	}

	roots, err := Assemble(rows, shape)
	require.NoError(t, err)
	require.Len(t, roots, 3)

	assert.Equal(t, 1, roots[0].ID())
	assert.Equal(t, 2, roots[1].ID())
	assert.Equal(t, int64(3), roots[2].ID())

	leaves, ok := roots[0].Collection("annualLeaves")
	require.True(t, ok)
	require.Len(t, leaves, 2)
	assert.Equal(t, 10, leaves[0].ID())
	assert.Equal(t, 11, leaves[1].ID())

	leaves, ok = roots[2].Collection("annualLeaves")
	require.True(t, ok)
	assert.Empty(t, leaves)

	_, ok = roots[0].Reference("department")
	assert.False(t, ok)
	assert.False(t, roots[0].IsLoaded("supervisor"))
	assert.True(t, roots[0].IsLoaded("annualLeaves"))

	name, ok := roots[1].Get("firstName")
	require.True(t, ok)
	assert.Equal(t, "Jim", name)

	assert.Equal(t,
		"{ id: 3, firstName: Nova, lastName: null, gender: FEMALE, "+
			"department: @UnloadedReference, supervisor: @UnloadedReference, annualLeaves: [] }",
		roots[2].String(),
	)
	assert.Equal(t,
		"{ id: 2, firstName: Jim, lastName: Raynor, gender: MALE, "+
			"department: @UnloadedReference, supervisor: @UnloadedReference, annualLeaves: [ "+
			"{ id: 20, startTime: 2015-01-07 09:00, endTime: 2015-02-28 18:00, state: REJECTED } ] }",
		roots[1].String(),
	)
}

func Test_Assemble_Idempotent(t *testing.T) {
	employee, _, _ := newTestSchema()
	shape, err := NewQuery(employee).With(Fetch("annualLeaves")).Build()
	require.NoError(t, err)

	rows := []Row{
		employeeRow(1, "Matt", "Horner", "MALE").with("t1", 10, "a", "b", "PENDING"),
		employeeRow(2, "Jim", "Raynor", "MALE").with("t1", 20, "a", "b", "PENDING"),
		employeeRow(1, "Matt", "Horner", "MALE").with("t1", 11, "a", "b", "PENDING"),
	}

	once, err := Assemble(rows, shape)
	require.NoError(t, err)
	twice, err := Assemble(append(append([]Row{}, rows...), rows...), shape)
	require.NoError(t, err)

	assert.Equal(t, FormatEntities(once), FormatEntities(twice))
}

func Test_Assemble_ReferencesAndIdentity(t *testing.T) {
	employee, _, _ := newTestSchema()
	shape, err := NewQuery(employee).
		With(Fetch("department"), Fetch("supervisor")).
		Build()
	require.NoError(t, err)

	row := func(id int, name string, department any, supervisor any, supervisorName any) Row {
		r := employeeRow(id, name, nil, "MALE")
		r["t1_department_id"] = department
		r["t1_name"] = valueIf(department != nil, "R&D")
		r["t2_employee_id"] = supervisor
		r["t2_first_name"] = supervisorName
		r["t2_last_name"] = nil
		r["t2_gender"] = valueIf(supervisor != nil, "FEMALE")

		return r
	}

	roots, err := Assemble([]Row{
		row(1, "Matt", 100, 3, "Nova"),
		row(2, "Jim", 100, nil, nil),
		row(3, "Nova", nil, nil, nil),
	}, shape)
	require.NoError(t, err)
	require.Len(t, roots, 3)

	mattDepartment, ok := roots[0].Reference("department")
	require.True(t, ok)
	jimDepartment, ok := roots[1].Reference("department")
	require.True(t, ok)
	assert.Same(t, mattDepartment, jimDepartment)

	// The supervisor decoded from Matt's row is the root Nova.
	supervisor, ok := roots[0].Reference("supervisor")
	require.True(t, ok)
	assert.Same(t, roots[2], supervisor)

	none, ok := roots[1].Reference("supervisor")
	require.True(t, ok)
	assert.Nil(t, none)
	assert.Contains(t, roots[1].String(), "supervisor: null")
}

func valueIf(cond bool, v any) any {
	if cond {
		return v
	}

	return nil
}

func Test_Assemble_Errors(t *testing.T) {
	employee, _, _ := newTestSchema()
	shape, err := NewQuery(employee).With(Fetch("annualLeaves")).Build()
	require.NoError(t, err)

	_, err = Assemble([]Row{employeeRow(nil, "Ghost", nil, "MALE")}, shape)
	require.Error(t, err)

	_, err = Assemble([]Row{employeeRow(1, "Matt", nil, "MALE").with("t1", 10, "a", "b", "c")}, shape)
	require.NoError(t, err)

	incomplete := Row{"t0_employee_id": 1, "t1_annual_leave_id": 10}
	_, err = Assemble([]Row{incomplete}, shape)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is missing")
}

// Rows of a distinct rank page: 12 employees with 1 to 3 leaves each, rows of
// one employee not contiguous. Page 2 of size 4 holds ranks 5 to 8.
func Test_Assemble_DistinctRankPage(t *testing.T) {
	employee, _, _ := newTestSchema()
	shape, err := NewQuery(employee).
		With(Fetch("annualLeaves"), Order("annualLeaves", "startTime").Desc()).
		Build()
	require.NoError(t, err)

	var rows []Row
	for round := 0; round < 3; round++ {
		for id := 5; id <= 8; id++ {
			leaves := 1 + id%3
			if round >= leaves {
				continue
			}
			rows = append(rows, employeeRow(id, fmt.Sprintf("E%02d", id), nil, "MALE").
				with("t1", id*10+round, fmt.Sprintf("2015-%02d", round+1), nil, "PENDING"))
		}
	}

	roots, err := Assemble(rows, shape)
	require.NoError(t, err)

	page := NewPage(roots, 2, 4, 12)
	require.Len(t, page.Entities, 4)
	assert.Equal(t, 2, page.ActualPageIndex)
	assert.Equal(t, 3, page.TotalPageCount)

	for i, e := range page.Entities {
		id := 5 + i
		assert.Equal(t, id, e.ID())

		leaves, ok := e.Collection("annualLeaves")
		require.True(t, ok)
		require.Len(t, leaves, 1+id%3)
		for round, leave := range leaves {
			assert.Equal(t, id*10+round, leave.ID())
		}
	}
}
