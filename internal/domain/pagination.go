package domain

// PaginationParams carries page-based pagination through list queries.
// Pages are 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit returns the row limit for a page, never less than 1.
func (p PaginationParams) Limit() int {
	if p.PageSize < 1 {
		return 1
	}
	return p.PageSize
}

// Offset returns the number of rows to skip to reach the current page.
func (p PaginationParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit()
}
