package pageplan

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Row is one raw result row keyed by lower-cased column alias.
type Row map[string]any

// Executor runs a compiled statement and streams its rows. It is the only
// place where SQL reaches a backend; the planner never opens connections or
// manages transactions.
//
// Errors yielded by an Executor are returned to the caller of Pager.Fetch
// unchanged.
type Executor interface {
	Query(ctx context.Context, query string, vars ...any) iter.Seq2[Row, error]
}

// GORMExecutor executes statements through a *gorm.DB, so placeholders are
// rebound to the bind-var style of its dialector.
type GORMExecutor struct {
	db *gorm.DB
}

func NewGORMExecutor(db *gorm.DB) *GORMExecutor {
	return &GORMExecutor{db: db}
}

// Query - implements Executor.
func (e *GORMExecutor) Query(ctx context.Context, query string, vars ...any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := e.db.WithContext(ctx).Raw(query, vars...).Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			row, err := scanRow(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}

		if err = rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func scanRow(rows *sql.Rows) (Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err = rows.Scan(pointers...); err != nil {
		return nil, err
	}

	row := make(Row, len(columns))
	for i, column := range columns {
		value := values[i]
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		row[strings.ToLower(column)] = value
	}

	return row, nil
}

// collect drains seq, stopping at the first error.
func collect(seq iter.Seq2[Row, error]) ([]Row, error) {
	var ret []Row
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		ret = append(ret, row)
	}

	return ret, nil
}

// Statement is one executed statement captured by Recorder.
type Statement struct {
	SQL  string
	Vars []any
}

// String - implements fmt.Stringer.
func (s Statement) String() string {
	return fmt.Sprintf("%s %v", s.SQL, s.Vars)
}

// Recorder is an Executor decorator capturing every issued statement. It is
// safe for concurrent use.
type Recorder struct {
	next Executor

	mu         sync.Mutex
	statements []Statement
}

func NewRecorder(next Executor) *Recorder {
	return &Recorder{next: next}
}

// Query - implements Executor.
func (r *Recorder) Query(ctx context.Context, query string, vars ...any) iter.Seq2[Row, error] {
	r.mu.Lock()
	r.statements = append(r.statements, Statement{SQL: query, Vars: slices.Clone(vars)})
	r.mu.Unlock()

	return r.next.Query(ctx, query, vars...)
}

// Statements returns a copy of the captured statements in issue order.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.statements)
}

// SQL returns the captured statement texts in issue order.
func (r *Recorder) SQL() []string {
	statements := r.Statements()
	ret := make([]string, 0, len(statements))
	for _, s := range statements {
		ret = append(ret, s.SQL)
	}

	return ret
}

// Reset drops captured statements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = nil
}

// LoggingExecutor is an Executor decorator logging every statement at debug
// level once its rows are drained.
type LoggingExecutor struct {
	next   Executor
	logger *slog.Logger
}

func NewLoggingExecutor(next Executor, logger *slog.Logger) *LoggingExecutor {
	if logger == nil {
		logger = slog.Default()
	}

	return &LoggingExecutor{
		next:   next,
		logger: logger,
	}
}

// Query - implements Executor.
func (e *LoggingExecutor) Query(ctx context.Context, query string, vars ...any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		var (
			started = time.Now()
			rows    int
			failure error
		)
		defer func() {
			attrs := []any{
				slog.String("sql", query),
				slog.Int("args", len(vars)),
				slog.Int("rows", rows),
				slog.Duration("duration", time.Since(started)),
			}
			if failure != nil {
				attrs = append(attrs, slog.Any("error", failure))
			}
			e.logger.DebugContext(ctx, "statement executed", attrs...)
		}()

		for row, err := range e.next.Query(ctx, query, vars...) {
			if err != nil {
				failure = err
			} else {
				rows++
			}
			if !yield(row, err) {
				return
			}
		}
	}
}
