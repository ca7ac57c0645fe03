package pageplan

import (
	"context"
	"math"
)

const (
	// MaxPageSize bounds page sizes of pagers without an explicit limit.
	MaxPageSize = 100
	// DefaultPageSize replaces missing or non-positive page sizes.
	DefaultPageSize = 10
)

// PageRequest is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging PageRequest `json:",inline"`
//	}
type PageRequest struct {
	// PageIndex - 1-based index of the requested page. Non-positive values
	// request the first page.
	PageIndex int `json:"pageIndex"`
	// PageSize - maximum number of root entities in the response.
	PageSize int `json:"pageSize"`
}

// Normalize maps the request onto valid values. The page size falls back to
// DefaultPageSize and is bounded by maxPageSize. The page index is at least 1
// and at most the last index whose window bounds fit an int; such pages lie
// beyond any real result anyway.
func (r PageRequest) Normalize(maxPageSize int) PageRequest {
	if maxPageSize < 1 {
		maxPageSize = MaxPageSize
	}

	pageSize := r.PageSize
	switch {
	case pageSize < 1:
		pageSize = min(DefaultPageSize, maxPageSize)
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	return PageRequest{
		PageIndex: min(max(r.PageIndex, 1), maxPageIndex(pageSize)),
		PageSize:  pageSize,
	}
}

// maxPageIndex is the largest page index for which pageIndex*pageSize does
// not overflow.
func maxPageIndex(pageSize int) int {
	return math.MaxInt / pageSize
}

// FetchRequest runs Fetch for a decoded API request.
func (p *Pager) FetchRequest(ctx context.Context, shape *QueryShape, r PageRequest) (*Page[*Entity], error) {
	return p.Fetch(ctx, shape, r.PageIndex, r.PageSize)
}
