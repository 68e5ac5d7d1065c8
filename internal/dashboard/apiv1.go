package dashboard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/triageboard/internal/clinical"
	"github.com/linnemanlabs/triageboard/internal/cohort"
	"github.com/linnemanlabs/triageboard/internal/navigation"
	"github.com/linnemanlabs/triageboard/internal/severity"
	"github.com/linnemanlabs/triageboard/internal/view"
)

type cohortResponse struct {
	Cohort clinical.Cohort `json:"cohort"`
	Title  string          `json:"title"`
	Rows   []view.RowView  `json:"rows"`
	Pager  view.PagerView  `json:"pager"`
}

type directoryResponse struct {
	Rows  []view.RowView `json:"rows"`
	Pager view.PagerView `json:"pager"`
}

type classifyResponse struct {
	Text  string        `json:"text"`
	Tier  severity.Tier `json:"tier"`
	Class string        `json:"class"`
}

func (a *API) pageSize(c clinical.Cohort) int {
	if n := a.opts.CohortPageSizes[c]; n > 0 {
		return n
	}
	return cohort.DefaultPageSizes[c]
}

// handleAPICohort serves one page of a cohort. It is stateless: the page comes
// from the query, not from a viewer session.
func (a *API) handleAPICohort(w http.ResponseWriter, r *http.Request) {
	c, err := clinical.ParseCohort(chi.URLParam(r, "cohort"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown cohort")
		return
	}
	ctx := r.Context()
	page, ok := parsePage(r)
	if !ok {
		page = 1
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("triageboard.cohort", string(c)),
		attribute.Int("triageboard.page", page),
	)

	size := a.pageSize(c)
	p, err := a.backend.FetchCohort(ctx, c, page, size)
	if err == nil && p.Page > p.LastPage() {
		p, err = a.backend.FetchCohort(ctx, c, p.LastPage(), size)
	}
	if err != nil {
		a.logger.Error(ctx, err, "cohort fetch failed", "cohort", string(c), "page", page)
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}

	writeJSON(w, http.StatusOK, cohortResponse{
		Cohort: c,
		Title:  c.Title(),
		Rows:   view.RenderCohortTable(p),
		Pager:  view.RenderPager(view.PagerInput{Page: p.Page, PageSize: p.PageSize, Total: p.Total}),
	})
}

func (a *API) handleAPIDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, ok := parsePage(r)
	if !ok {
		page = 1
	}
	p, err := a.loadDirectory(ctx, page)
	if err != nil {
		a.logger.Error(ctx, err, "patient directory failed", "page", page)
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, directoryResponse{
		Rows:  view.RenderDirectory(p),
		Pager: view.RenderPager(view.PagerInput{Page: p.Page, PageSize: p.PageSize, Total: p.Total}),
	})
}

// handleAPIPatient answers 502 only when both sections failed; a partial
// screen is still a useful answer.
func (a *API) handleAPIPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || strings.TrimSpace(id) == "" {
		writeError(w, http.StatusNotFound, "unknown patient")
		return
	}
	sel := navigation.Selector{
		PatientID: id,
		Mode:      navigation.ParseMode(r.URL.Query().Get("mode")),
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("triageboard.patient.state", string(sel.State())))

	scr := a.nav.Load(ctx, sel)
	v := a.composePatient(ctx, scr)

	status := http.StatusOK
	if scr.HeaderErr != nil && scr.DetailErr != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, v)
}

func (a *API) handleAPIClassify(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	tier := severity.Classify(text)
	writeJSON(w, http.StatusOK, classifyResponse{Text: text, Tier: tier, Class: view.BadgeClass(tier)})
}
