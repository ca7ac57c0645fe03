package pageplan

import (
	"regexp"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return DialectMySQL, db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return DialectPostgres, db.Debug(), mock, nil
}

// expectedSQL turns a statement with "?" placeholders into a sqlmock pattern
// matching both "?" and "$n" bind vars.
func expectedSQL(query string) string {
	return "^" + strings.ReplaceAll(regexp.QuoteMeta(query), `\?`, `(?:\$\d+|\?)`) + "$"
}

// Fixture schema:
//
//	Department 1 - * Employee 1 - * AnnualLeave
//	                 Employee * - 1 Employee (supervisor)
func newTestSchema() (employee, annualLeave, department *EntityType) {
	department = NewEntityType("Department", "DEPARTMENT").
		WithID("id", "DEPARTMENT_ID").
		WithAttribute("name", "NAME")

	annualLeave = NewEntityType("AnnualLeave", "ANNUAL_LEAVE").
		WithID("id", "ANNUAL_LEAVE_ID").
		WithAttribute("startTime", "START_TIME").
		WithAttribute("endTime", "END_TIME").
		WithAttribute("state", "STATE")

	employee = NewEntityType("Employee", "EMPLOYEE").
		WithID("id", "EMPLOYEE_ID").
		WithAttribute("firstName", "FIRST_NAME").
		WithAttribute("lastName", "LAST_NAME").
		WithAttribute("gender", "GENDER").
		WithReference("department", department, "DEPARTMENT_ID").
		WithReference("supervisor", nil, "SUPERVISOR_ID").
		WithCollection("annualLeaves", annualLeave, "EMPLOYEE_ID")

	// Self reference needs the type to exist first.
	supervisor, _ := employee.Association("supervisor")
	supervisor.Target = employee

	department.WithCollection("employees", employee, "DEPARTMENT_ID")

	return employee, annualLeave, department
}
