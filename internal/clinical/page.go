package clinical

// Page is one bounded slice of a listing. Page is 1-indexed and Total counts
// the whole listing independent of the current page.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// LastPage is the last valid page of the listing.
func (p Page[T]) LastPage() int {
	return LastPage(p.Total, p.PageSize)
}

// LastPage returns max(1, ceil(total/pageSize)).
func LastPage(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Erase converts a typed cohort page into a page of CohortItem, keeping the
// item order and metadata.
func Erase[T CohortItem](p Page[T]) Page[CohortItem] {
	items := make([]CohortItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, it)
	}
	return Page[CohortItem]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
	}
}
