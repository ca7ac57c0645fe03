package pageplan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/clause"
)

// Plan is the compiled form of one page request.
type Plan struct {
	Strategy  Strategy
	PageIndex int
	PageSize  int
	// Count is the total root count query. It is empty for StrategyMemoryPaging,
	// where the total is the number of root groups of the page query result.
	Count clause.Expr
	// Page is the page query. For StrategyMemoryPaging it is unbounded and
	// must be windowed by MemoryPager.
	Page clause.Expr
}

// Pager plans and executes page requests against one backend. A Pager is
// immutable after configuration and safe for concurrent use.
//
//	pager := NewPager(NewGORMExecutor(db), dialect).WithMemoryPaging(true)
//	page, err := pager.Fetch(ctx, shape, 2, 10)
type Pager struct {
	executor     Executor
	dialect      Dialect
	memoryPaging bool
	concurrent   bool
	maxPageSize  int
	logger       *slog.Logger
}

func NewPager(executor Executor, dialect Dialect) *Pager {
	return &Pager{
		executor:    executor,
		dialect:     dialect,
		maxPageSize: MaxPageSize,
		logger:      slog.Default(),
	}
}

// WithMemoryPaging allows falling back to in-process paging for shapes the
// backend cannot window. It is disabled by default: the fallback loads the
// whole filtered result set into memory.
func (p *Pager) WithMemoryPaging(enabled bool) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.memoryPaging = enabled

	return p
}

// WithConcurrentQueries issues the count and the page query concurrently.
//
// IMPORTANT:
// In concurrent mode the page query is issued even when the requested page
// turns out to lie beyond the last one.
func (p *Pager) WithConcurrentQueries(enabled bool) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.concurrent = enabled

	return p
}

// WithMaxPageSize sets the upper bound for requested page sizes.
func (p *Pager) WithMaxPageSize(maxPageSize int) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.maxPageSize = maxPageSize

	return p
}

func (p *Pager) WithLogger(logger *slog.Logger) *Pager {
	if p == nil {
		p = new(Pager)
	}

	p.logger = logger

	return p
}

// Dialect returns the dialect the pager plans for.
func (p *Pager) Dialect() Dialect {
	return p.dialect
}

// Plan selects the paging strategy for shape and compiles its queries. The
// page index and size are normalized first.
func (p *Pager) Plan(shape *QueryShape, pageIndex, pageSize int) (*Plan, error) {
	if shape == nil {
		return nil, fmt.Errorf("cannot plan page: query shape is nil")
	}

	r := PageRequest{PageIndex: pageIndex, PageSize: pageSize}.Normalize(p.getMaxPageSize())
	pageIndex, pageSize = r.PageIndex, r.PageSize

	strategy := SelectStrategy(shape, p.dialect.Capability)
	if strategy == StrategyMemoryPaging && !p.memoryPaging {
		return nil, fmt.Errorf("cannot plan page: %w: memory paging is disabled", ErrUnsupportedPagingShape)
	}

	page, err := BuildPage(shape, p.dialect, strategy, pageIndex, pageSize)
	if err != nil {
		return nil, fmt.Errorf("cannot plan page: %w", err)
	}

	plan := &Plan{
		Strategy:  strategy,
		PageIndex: pageIndex,
		PageSize:  pageSize,
		Page:      page,
	}
	if strategy != StrategyMemoryPaging {
		plan.Count = BuildCount(shape)
	}

	return plan, nil
}

// Fetch runs the page request and assembles the root entities of the page.
// Errors of the Executor are returned unchanged; no partial page is ever
// returned.
func (p *Pager) Fetch(ctx context.Context, shape *QueryShape, pageIndex, pageSize int) (*Page[*Entity], error) {
	plan, err := p.Plan(shape, pageIndex, pageSize)
	if err != nil {
		return nil, err
	}

	p.getLogger().DebugContext(ctx, "paging strategy selected",
		slog.String("strategy", string(plan.Strategy)),
		slog.String("dialect", p.dialect.Name),
		slog.Int("page_index", plan.PageIndex),
		slog.Int("page_size", plan.PageSize),
	)

	var (
		rows  []Row
		total int64
	)
	switch {
	case plan.Strategy == StrategyMemoryPaging:
		rows, total, err = NewMemoryPager(shape).Page(
			p.executor.Query(ctx, plan.Page.SQL, plan.Page.Vars...), plan.PageIndex, plan.PageSize)
	case p.concurrent:
		rows, total, err = p.fetchConcurrently(ctx, plan)
	default:
		rows, total, err = p.fetchSequentially(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	entities, err := Assemble(rows, shape)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch page: %w", err)
	}

	return NewPage(entities, plan.PageIndex, plan.PageSize, total), nil
}

// fetchSequentially counts first and skips the page query when the requested
// page is empty anyway.
func (p *Pager) fetchSequentially(ctx context.Context, plan *Plan) ([]Row, int64, error) {
	total, err := p.count(ctx, plan.Count)
	if err != nil {
		return nil, 0, err
	}

	if total == 0 || plan.PageIndex > totalPageCount(total, plan.PageSize) {
		return nil, total, nil
	}

	rows, err := collect(p.executor.Query(ctx, plan.Page.SQL, plan.Page.Vars...))
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (p *Pager) fetchConcurrently(ctx context.Context, plan *Plan) ([]Row, int64, error) {
	var (
		rows  []Row
		total int64
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = p.count(gCtx, plan.Count)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = collect(p.executor.Query(gCtx, plan.Page.SQL, plan.Page.Vars...))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (p *Pager) count(ctx context.Context, expr clause.Expr) (int64, error) {
	rows, err := collect(p.executor.Query(ctx, expr.SQL, expr.Vars...))
	if err != nil {
		return 0, err
	}

	if len(rows) != 1 || len(rows[0]) != 1 {
		return 0, fmt.Errorf("cannot read total count: expected a single value, got %d rows", len(rows))
	}

	for _, value := range rows[0] {
		total, err := cast.ToInt64E(value)
		if err != nil {
			return 0, fmt.Errorf("cannot read total count: %w", err)
		}

		return total, nil
	}

	return 0, nil
}

func (p *Pager) getMaxPageSize() int {
	if p.maxPageSize < 1 {
		return MaxPageSize
	}

	return p.maxPageSize
}

func (p *Pager) getLogger() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}

	return p.logger
}

// FetchPage runs a page request and converts its entities with fn.
func FetchPage[T any](
	ctx context.Context,
	pager *Pager,
	shape *QueryShape,
	pageIndex, pageSize int,
	fn func(*Entity) (T, error),
) (*Page[T], error) {
	page, err := pager.Fetch(ctx, shape, pageIndex, pageSize)
	if err != nil {
		return nil, err
	}

	return MapPage(page, fn)
}
