package models

const defaultPageLimit = 20

// Pager is a 1-based page window.
type Pager struct {
	Page  int
	Limit int
}

// NewPager clamps page to at least 1 and defaults a non-positive limit.
func NewPager(page, limit int) Pager {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return Pager{Page: page, Limit: limit}
}

func (p Pager) Offset() int {
	return p.Page*p.Limit - p.Limit
}

// HasNext reports whether rows remain past this page out of total.
func (p Pager) HasNext(total int) bool {
	return p.Offset()+p.Limit < total
}
