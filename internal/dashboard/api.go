// Package dashboard serves the triage dashboard: server-rendered screens for
// care staff and a small JSON API for wallboards and integrations.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/triageboard/internal/authmw"
	"github.com/linnemanlabs/triageboard/internal/backend"
	"github.com/linnemanlabs/triageboard/internal/clinical"
	"github.com/linnemanlabs/triageboard/internal/cohort"
	"github.com/linnemanlabs/triageboard/internal/navigation"
	"github.com/linnemanlabs/triageboard/internal/session"
)

const defaultDirectoryPageSize = 20

// Backend defines the clinical data the dashboard reads.
type Backend interface {
	cohort.Fetcher
	navigation.Fetcher
	Patients(ctx context.Context, page, pageSize int) (clinical.Page[clinical.Patient], error)
	Counts(ctx context.Context) (clinical.Counts, error)
}

// Sessions resolves the viewer session of a request.
type Sessions interface {
	GetOrCreate(id string) (*session.Session, bool)
}

// Options configures the dashboard.
type Options struct {
	// APIToken, when set, is required as a bearer token on /api/v1.
	APIToken string
	// CohortPageSizes are the page sizes of the stateless cohort API.
	CohortPageSizes map[clinical.Cohort]int
	// DirectoryPageSize is the page size of the patient directory.
	DirectoryPageSize int
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	backend  Backend
	sessions Sessions
	nav      *navigation.Controller
	pages    map[string]*template.Template
	opts     Options
}

// New creates a new API handler.
func New(logger log.Logger, be Backend, sessions Sessions, opts Options) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if be == nil {
		panic(xerrors.New("clinical backend is required"))
	}
	if sessions == nil {
		panic(xerrors.New("session store is required"))
	}
	if opts.DirectoryPageSize <= 0 {
		opts.DirectoryPageSize = defaultDirectoryPageSize
	}
	pages, err := parsePages()
	if err != nil {
		panic(xerrors.New("parse templates: " + err.Error()))
	}
	return &API{
		logger:   logger,
		backend:  be,
		sessions: sessions,
		nav:      navigation.NewController(be),
		pages:    pages,
		opts:     opts,
	}
}

// RegisterRoutes attaches dashboard screens and API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.handleDashboard)
	r.Route("/cohorts/{cohort}", func(r chi.Router) {
		r.Get("/", a.handleCohort)
		r.Post("/next", a.handleStep(1))
		r.Post("/prev", a.handleStep(-1))
	})
	r.Get("/patients", a.handleDirectory)
	r.Get(navigation.DetailPath, a.handlePatient)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authmw.BearerToken(a.opts.APIToken))
		r.Get("/cohorts/{cohort}", a.handleAPICohort)
		r.Get("/patients", a.handleAPIDirectory)
		r.Get("/patients/{id}", a.handleAPIPatient)
		r.Get("/classify", a.handleAPIClassify)
	})
}

// viewer returns the session of the request, starting one if needed.
func (a *API) viewer(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	}
	sess, created := a.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   a.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// render executes a page into a buffer so a template failure never leaves a
// half-written response.
func (a *API) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	t, ok := a.pages[page]
	if !ok {
		a.logger.Error(r.Context(), errors.New("unknown page"), "render failed", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error(r.Context(), err, "render failed", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parsePage reads ?page. Absent, malformed and non-positive values are
// reported as absent.
func parsePage(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// localPath accepts only same-origin absolute paths as redirect targets.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

// sectionError is the message a viewer sees in place of a failed section.
func sectionError(err error) string {
	if errors.Is(err, backend.ErrCircuitOpen) {
		return "The clinical service is unavailable. Try again shortly."
	}
	return "Could not load data from the clinical service."
}
