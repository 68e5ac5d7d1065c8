package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/triageboard/internal/clinical"
	"github.com/linnemanlabs/triageboard/internal/cohort"
	"github.com/linnemanlabs/triageboard/internal/navigation"
	"github.com/linnemanlabs/triageboard/internal/view"
)

type cohortSection struct {
	Cohort clinical.Cohort
	Title  string
	Rows   []view.RowView
	Pager  view.PagerView
	Err    string
	// Return is where the pager buttons come back to.
	Return string
}

type dashboardData struct {
	Title    string
	Risk     view.RiskOverview
	RiskErr  string
	Critical cohortSection
}

type cohortData struct {
	Title   string
	Section cohortSection
}

type directoryData struct {
	Title string
	Rows  []view.RowView
	Pager view.PagerView
	Err   string
}

// patientView is shared by the detail screen and the JSON API.
type patientView struct {
	Title     string                 `json:"-"`
	Empty     bool                   `json:"empty"`
	PatientID string                 `json:"patient_id,omitempty"`
	State     navigation.DetailState `json:"state"`
	Links     navigation.ModeLinks   `json:"links"`
	Header    *view.PatientHeader    `json:"header,omitempty"`
	HeaderErr string                 `json:"header_error,omitempty"`
	Summary   *view.SummaryView      `json:"summary,omitempty"`
	Pipeline  *view.PipelineView     `json:"pipeline,omitempty"`
	DetailErr string                 `json:"detail_error,omitempty"`
}

// loadCohort loads one page of a cohort into the viewer's board. Failures stay
// inside the section: the pager is drawn from the board state either way.
func (a *API) loadCohort(ctx context.Context, board *cohort.Store, c clinical.Cohort, page int) cohortSection {
	sec := cohortSection{Cohort: c, Title: c.Title(), Return: "/cohorts/" + string(c)}

	p, err := board.LoadPage(ctx, c, page)
	if err == nil && p.Page > p.LastPage() {
		p, err = board.LoadPage(ctx, c, p.LastPage())
	}
	if errors.Is(err, cohort.ErrSuperseded) {
		var loaded bool
		p, loaded, err = board.Current(c)
		if err == nil && !loaded {
			err = cohort.ErrSuperseded
		}
	}

	switch {
	case errors.Is(err, cohort.ErrSuperseded):
		sec.Err = "A newer request for this list is still loading. Refresh to see it."
	case err != nil:
		a.logger.Error(ctx, err, "cohort load failed", "cohort", string(c), "page", page)
		sec.Err = sectionError(err)
	default:
		sec.Rows = view.RenderCohortTable(p)
	}

	st, _ := board.State(c)
	sec.Pager = view.RenderPager(view.PagerInput{Page: st.Page, PageSize: st.PageSize, Total: st.Total})
	return sec
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := a.viewer(w, r)

	data := dashboardData{Title: "Triage Dashboard"}

	counts, err := a.backend.Counts(ctx)
	if err != nil {
		a.logger.Error(ctx, err, "risk overview failed")
		data.RiskErr = sectionError(err)
	} else {
		data.Risk = view.RenderRiskOverview(counts)
	}

	st, _ := sess.Board.State(clinical.CohortCritical)
	data.Critical = a.loadCohort(ctx, sess.Board, clinical.CohortCritical, st.Page)
	data.Critical.Return = "/"

	a.render(w, r, "dashboard.html", data)
}

func (a *API) handleCohort(w http.ResponseWriter, r *http.Request) {
	c, err := clinical.ParseCohort(chi.URLParam(r, "cohort"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	sess := a.viewer(w, r)

	st, _ := sess.Board.State(c)
	page := st.Page
	if n, ok := parsePage(r); ok {
		page = n
		if st.Loaded {
			page = min(n, st.LastPage())
		}
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("triageboard.cohort", string(c)),
		attribute.Int("triageboard.page", page),
	)

	a.render(w, r, "cohort.html", cohortData{
		Title:   c.Title(),
		Section: a.loadCohort(r.Context(), sess.Board, c, page),
	})
}

// handleStep moves a cohort one page forward or back and redirects to the
// screen it was posted from.
func (a *API) handleStep(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := clinical.ParseCohort(chi.URLParam(r, "cohort"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		ctx := r.Context()
		sess := a.viewer(w, r)

		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("triageboard.cohort", string(c)),
			attribute.Int("triageboard.page.delta", delta),
		)

		if delta > 0 {
			_, err = sess.Board.NextPage(ctx, c)
		} else {
			_, err = sess.Board.PrevPage(ctx, c)
		}
		if err != nil && !errors.Is(err, cohort.ErrSuperseded) {
			a.logger.Error(ctx, err, "page change failed", "cohort", string(c), "delta", delta)
		}

		target := "/cohorts/" + string(c)
		if ret := r.FormValue("return"); localPath(ret) {
			target = ret
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func (a *API) loadDirectory(ctx context.Context, page int) (clinical.Page[clinical.Patient], error) {
	size := a.opts.DirectoryPageSize
	p, err := a.backend.Patients(ctx, page, size)
	if err == nil && p.Page > p.LastPage() {
		p, err = a.backend.Patients(ctx, p.LastPage(), size)
	}
	return p, err
}

func (a *API) handleDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, ok := parsePage(r)
	if !ok {
		page = 1
	}

	data := directoryData{Title: "Patient Directory"}
	p, err := a.loadDirectory(ctx, page)
	if err != nil {
		a.logger.Error(ctx, err, "patient directory failed", "page", page)
		data.Err = sectionError(err)
		data.Pager = view.RenderPager(view.PagerInput{Page: page, PageSize: a.opts.DirectoryPageSize})
	} else {
		data.Rows = view.RenderDirectory(p)
		data.Pager = view.RenderPager(view.PagerInput{Page: p.Page, PageSize: p.PageSize, Total: p.Total})
	}
	a.render(w, r, "directory.html", data)
}

// composePatient turns a loaded detail screen into its view.
func (a *API) composePatient(ctx context.Context, scr navigation.Screen) patientView {
	v := patientView{Title: "Patient", Empty: scr.Empty, State: scr.State}
	if scr.Empty {
		return v
	}
	id := scr.Selector.PatientID
	v.PatientID = id
	v.Links = navigation.Links(id)

	if scr.HeaderErr != nil {
		a.logger.Error(ctx, scr.HeaderErr, "patient header failed")
		v.HeaderErr = sectionError(scr.HeaderErr)
	} else if scr.Patient != nil {
		h := view.RenderPatientHeader(*scr.Patient)
		v.Header = &h
		v.Title = h.Name
	}

	switch {
	case scr.DetailErr != nil:
		a.logger.Error(ctx, scr.DetailErr, "patient detail failed", "state", string(scr.State))
		v.DetailErr = sectionError(scr.DetailErr)
	case scr.Summary != nil:
		s := view.RenderSummaryCard(*scr.Summary)
		v.Summary = &s
	case scr.Pipeline != nil:
		p := view.RenderPipeline(*scr.Pipeline)
		v.Pipeline = &p
	}
	return v
}

func (a *API) handlePatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scr := a.nav.LoadQuery(ctx, r.URL.Query())

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("triageboard.patient.selected", !scr.Empty),
		attribute.String("triageboard.patient.state", string(scr.State)),
	)

	a.render(w, r, "patient.html", a.composePatient(ctx, scr))
}
