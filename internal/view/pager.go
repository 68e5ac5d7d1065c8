package view

import "github.com/linnemanlabs/triageboard/internal/clinical"

// PagerInput is the pagination state a pager is drawn from.
type PagerInput struct {
	Page     int
	PageSize int
	Total    int
}

// PagerView describes the pager controls and the "start-end of total" label.
type PagerView struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Start    int  `json:"start"`
	End      int  `json:"end"`
	LastPage int  `json:"last_page"`
	HasPrev  bool `json:"has_prev"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page"`
	NextPage int  `json:"next_page"`
}

// RenderPager computes the visible item range and the control states. Start
// and End are 0 when there is nothing to show on the page.
func RenderPager(in PagerInput) PagerView {
	page := max(in.Page, 1)
	last := clinical.LastPage(in.Total, in.PageSize)

	v := PagerView{
		Page:     page,
		PageSize: in.PageSize,
		Total:    max(in.Total, 0),
		LastPage: last,
		HasPrev:  page > 1,
		HasNext:  page < last,
		PrevPage: max(page-1, 1),
		NextPage: min(page+1, last),
	}
	if in.PageSize > 0 && v.Total > 0 {
		start := (page-1)*in.PageSize + 1
		if start <= v.Total {
			v.Start = start
			v.End = min(v.Total, page*in.PageSize)
		}
	}
	return v
}
