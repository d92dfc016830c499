package view

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination tracks a page cursor over a list of known total size.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// NewPagination starts at page 1 with DefaultLimit.
func NewPagination() Pagination {
	return Pagination{Page: DefaultPage, Limit: DefaultLimit}
}

func (p Pagination) TotalPages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p Pagination) HasNext() bool { return p.Page < p.TotalPages() }

func (p Pagination) HasPrev() bool { return p.Page > 1 }

// Offset is the index of the first item on the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// SetPage moves to page, clamped to [1, TotalPages].
func (p *Pagination) SetPage(page int) {
	if last := p.TotalPages(); last > 0 && page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	p.Page = page
}

// SetLimit changes the page size, clamped to [1, MaxLimit], and returns to
// the first page.
func (p *Pagination) SetLimit(limit int) {
	switch {
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	p.Limit = limit
	p.Page = DefaultPage
}

// SetTotal updates the total and pulls the page back inside range.
func (p *Pagination) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.Total = total
	p.SetPage(p.Page)
}

func (p *Pagination) Next() {
	if p.HasNext() {
		p.Page++
	}
}

func (p *Pagination) Prev() {
	if p.HasPrev() {
		p.Page--
	}
}

func (p *Pagination) Reset() {
	*p = NewPagination()
}

// Page returns the slice of items on the requested page along with the
// clamped cursor.
func Page[T any](items []T, page, limit int) ([]T, Pagination) {
	p := NewPagination()
	p.SetLimit(limit)
	p.Total = len(items)
	p.SetPage(page)

	start := p.Offset()
	if start >= len(items) {
		return []T{}, p
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], p
}
