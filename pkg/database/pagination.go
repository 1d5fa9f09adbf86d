package database

// Pagination describes one page of a list query.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination normalises page/limit and derives the page count.
func NewPagination(page, limit int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}

	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Skip returns the number of documents to skip for this page.
func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}
