package blog

// DefaultPageSize is used when the client does not provide a limit.
const DefaultPageSize = 10

// MaxPageSize caps the per-page limit a client may request.
const MaxPageSize = 100

// Pager is a normalized page request.
type Pager struct {
	Page  int
	Limit int
}

// NewPager clamps raw query values into a usable page request.
func NewPager(page, limit int) Pager {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pager{Page: page, Limit: limit}
}

// Offset returns the row offset for the page.
func (p Pager) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes the page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination builds the response pagination block, Pages being the
// ceiling of Total/Limit.
func NewPagination(p Pager, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: pages,
	}
}
