package domain

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const DefaultPageLimit = 10

// PaginationParams are sent as page/limit/sortBy/sortOrder query parameters.
type PaginationParams struct {
	Page      int       `url:"page,omitempty"`
	Limit     int       `url:"limit,omitempty"`
	SortBy    string    `url:"sortBy,omitempty"`
	SortOrder SortOrder `url:"sortOrder,omitempty"`
}

type SearchFilters struct {
	Query    string `url:"query,omitempty" json:"query,omitempty"`
	Author   string `url:"author,omitempty" json:"author,omitempty"`
	UPCCode  string `url:"upcCode,omitempty" json:"upcCode,omitempty"`
	Status   string `url:"status,omitempty" json:"status,omitempty"`
	DateFrom string `url:"dateFrom,omitempty" json:"dateFrom,omitempty"`
	DateTo   string `url:"dateTo,omitempty" json:"dateTo,omitempty"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// DefaultPagination is the state held before the first fetch completes.
func DefaultPagination() Pagination {
	return Pagination{Total: 0, Page: 1, Limit: DefaultPageLimit, TotalPages: 0}
}

// NewPagination derives TotalPages as ceil(total/limit).
func NewPagination(total, page, limit int) Pagination {
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
	}
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Page is a paginated response body.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Valid reports whether the page honours the paging invariants.
func (p Page[T]) Valid() bool {
	if p.Pagination.TotalPages != TotalPages(p.Pagination.Total, p.Pagination.Limit) {
		return false
	}
	if p.Pagination.Limit > 0 && len(p.Data) > p.Pagination.Limit {
		return false
	}
	return true
}
