// Package backend is the client for the clinical-data service that computes
// patient records, alert strings and pipeline bundles. Every failure it
// returns is a *FetchError.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/triageboard/internal/clinical"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	maxErrorBody            = 512
)

// Backend routes, also used as the endpoint label on metrics and errors.
const (
	RoutePatients         = "/patients"
	RoutePatientCount     = "/patients/count"
	RouteOverview         = "/patients/overview"
	RouteCriticalPatients = "/critical/patients"
	RouteCriticalCount    = "/critical/count"
	RouteNormalPatients   = "/normal/patients"
	RoutePatient          = "/patient/{id}"
	RoutePipeline         = "/pipeline/{id}"
	RoutePipelineSimple   = "/pipeline/simple/{id}"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the backend API root, e.g. http://localhost:8000/api.
	BaseURL string
	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration
	// Transport is the base round tripper. Nil means http.DefaultTransport.
	Transport http.RoundTripper
	// TracerProvider overrides the global provider for client spans.
	TracerProvider trace.TracerProvider
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit. Zero means 5.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before probing again.
	// Zero means 30s.
	OpenTimeout time.Duration
	Hooks       Hooks
}

// Client fetches clinical data over HTTP.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	hooks   Hooks
}

// New creates a backend client. It panics if BaseURL is empty.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		panic(xerrors.New("backend base URL is required"))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = defaultFailureThreshold
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	var transportOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		transportOpts = append(transportOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	hc := &http.Client{Transport: otelhttp.NewTransport(base, transportOpts...)}

	c := &Client{
		http: resty.NewWithClient(hc).
			SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "application/json"),
		hooks: opts.Hooks,
	}

	threshold := opts.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if c.hooks.OnCircuitState != nil {
				c.hooks.OnCircuitState(to.String())
			}
		},
		IsSuccessful: func(err error) bool {
			// a viewer closing the tab is not a backend failure
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return c
}

// get issues GET route and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, route string, query, path map[string]string) ([]byte, error) {
	start := time.Now()
	body, err := c.do(ctx, route, query, path)

	if c.hooks.OnFetch != nil {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrCircuitOpen):
			outcome = "circuit_open"
		case err != nil:
			outcome = "error"
		}
		c.hooks.OnFetch(route, outcome, time.Since(start).Seconds())
	}
	return body, err
}

func (c *Client) do(ctx context.Context, route string, query, path map[string]string) ([]byte, error) {
	var resp *resty.Response
	_, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetPathParams(path).
			Get(route)
		resp = r
		if err != nil {
			return nil, err
		}
		if r.StatusCode() >= http.StatusInternalServerError {
			return nil, ErrStatus
		}
		return nil, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &FetchError{Endpoint: route, Err: ErrCircuitOpen}
	case errors.Is(err, ErrStatus):
		return nil, statusError(route, resp)
	case err != nil:
		return nil, &FetchError{Endpoint: route, Err: err}
	case !resp.IsSuccess():
		return nil, statusError(route, resp)
	}
	return resp.Body(), nil
}

func statusError(route string, resp *resty.Response) *FetchError {
	snippet := resp.Body()
	if len(snippet) > maxErrorBody {
		snippet = snippet[:maxErrorBody]
	}
	return &FetchError{
		Endpoint: route,
		Status:   resp.StatusCode(),
		Err:      fmt.Errorf("%w: %s", ErrStatus, strings.TrimSpace(string(snippet))),
	}
}

func malformed(route string, format string, args ...any) *FetchError {
	return &FetchError{
		Endpoint: route,
		Err:      fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...)),
	}
}

func pageQuery(page, pageSize int) map[string]string {
	return map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}
}

// decodePage validates the whole page before anything sees it, so a
// half-parsed page never reaches the store or the composer.
func decodePage[T any](route string, body []byte) (clinical.Page[T], error) {
	var wire struct {
		Items    *[]T `json:"items"`
		Page     *int `json:"page"`
		PageSize *int `json:"page_size"`
		Total    *int `json:"total"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return clinical.Page[T]{}, malformed(route, "%v", err)
	}

	var missing []string
	if wire.Items == nil {
		missing = append(missing, "items")
	}
	if wire.Total == nil {
		missing = append(missing, "total")
	}
	if wire.Page == nil {
		missing = append(missing, "page")
	}
	if wire.PageSize == nil {
		missing = append(missing, "page_size")
	}
	if len(missing) > 0 {
		return clinical.Page[T]{}, malformed(route, "missing %s", strings.Join(missing, ", "))
	}

	p := clinical.Page[T]{
		Items:    *wire.Items,
		Page:     *wire.Page,
		PageSize: *wire.PageSize,
		Total:    *wire.Total,
	}
	switch {
	case p.Page < 1:
		return clinical.Page[T]{}, malformed(route, "page %d < 1", p.Page)
	case p.PageSize < 1:
		return clinical.Page[T]{}, malformed(route, "page_size %d < 1", p.PageSize)
	case p.Total < 0:
		return clinical.Page[T]{}, malformed(route, "total %d < 0", p.Total)
	case len(p.Items) > p.PageSize:
		return clinical.Page[T]{}, malformed(route, "%d items exceed page_size %d", len(p.Items), p.PageSize)
	}
	return p, nil
}

// Patients returns one page of the plain patient directory.
func (c *Client) Patients(ctx context.Context, page, pageSize int) (clinical.Page[clinical.Patient], error) {
	body, err := c.get(ctx, RoutePatients, pageQuery(page, pageSize), nil)
	if err != nil {
		return clinical.Page[clinical.Patient]{}, err
	}
	return decodePage[clinical.Patient](RoutePatients, body)
}

// Overview returns one page of the all-patients overview.
func (c *Client) Overview(ctx context.Context, page, pageSize int) (clinical.Page[clinical.OverviewEntry], error) {
	body, err := c.get(ctx, RouteOverview, pageQuery(page, pageSize), nil)
	if err != nil {
		return clinical.Page[clinical.OverviewEntry]{}, err
	}
	p, err := decodePage[clinical.OverviewEntry](RouteOverview, body)
	if err != nil {
		return p, err
	}
	for i, it := range p.Items {
		if it.Status != clinical.StatusCritical && it.Status != clinical.StatusNormal {
			return clinical.Page[clinical.OverviewEntry]{}, malformed(RouteOverview, "items[%d]: unknown status %q", i, it.Status)
		}
	}
	return p, nil
}

// CriticalPatients returns one page of patients with critical alerts.
func (c *Client) CriticalPatients(ctx context.Context, page, pageSize int) (clinical.Page[clinical.AlertedPatient], error) {
	body, err := c.get(ctx, RouteCriticalPatients, pageQuery(page, pageSize), nil)
	if err != nil {
		return clinical.Page[clinical.AlertedPatient]{}, err
	}
	return decodePage[clinical.AlertedPatient](RouteCriticalPatients, body)
}

// NormalPatients returns one page of patients without critical alerts. Their
// alert lists may be empty.
func (c *Client) NormalPatients(ctx context.Context, page, pageSize int) (clinical.Page[clinical.AlertedPatient], error) {
	body, err := c.get(ctx, RouteNormalPatients, pageQuery(page, pageSize), nil)
	if err != nil {
		return clinical.Page[clinical.AlertedPatient]{}, err
	}
	return decodePage[clinical.AlertedPatient](RouteNormalPatients, body)
}

// FetchCohort loads one page of the given cohort in its listing shape.
func (c *Client) FetchCohort(ctx context.Context, cohort clinical.Cohort, page, pageSize int) (clinical.Page[clinical.CohortItem], error) {
	switch cohort {
	case clinical.CohortCritical:
		p, err := c.CriticalPatients(ctx, page, pageSize)
		if err != nil {
			return clinical.Page[clinical.CohortItem]{}, err
		}
		return clinical.Erase(p), nil
	case clinical.CohortNormal:
		p, err := c.NormalPatients(ctx, page, pageSize)
		if err != nil {
			return clinical.Page[clinical.CohortItem]{}, err
		}
		return clinical.Erase(p), nil
	case clinical.CohortAll:
		p, err := c.Overview(ctx, page, pageSize)
		if err != nil {
			return clinical.Page[clinical.CohortItem]{}, err
		}
		return clinical.Erase(p), nil
	}
	return clinical.Page[clinical.CohortItem]{}, fmt.Errorf("unknown cohort %q", cohort)
}

func (c *Client) count(ctx context.Context, route, field string) (int, error) {
	body, err := c.get(ctx, route, nil, nil)
	if err != nil {
		return 0, err
	}
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(body, &wire); err != nil {
		return 0, malformed(route, "%v", err)
	}
	raw, ok := wire[field]
	if !ok {
		return 0, malformed(route, "missing %s", field)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil || n < 0 {
		return 0, malformed(route, "%s is not a non-negative integer: %s", field, string(raw))
	}
	return n, nil
}

// PatientCount returns the number of patients.
func (c *Client) PatientCount(ctx context.Context) (int, error) {
	return c.count(ctx, RoutePatientCount, "total")
}

// CriticalCount returns the number of patients with critical alerts.
func (c *Client) CriticalCount(ctx context.Context) (int, error) {
	return c.count(ctx, RouteCriticalCount, "critical_patient_count")
}

// Counts returns the population figures for the risk overview.
func (c *Client) Counts(ctx context.Context) (clinical.Counts, error) {
	total, err := c.PatientCount(ctx)
	if err != nil {
		return clinical.Counts{}, err
	}
	critical, err := c.CriticalCount(ctx)
	if err != nil {
		return clinical.Counts{}, err
	}
	return clinical.Counts{Total: total, Critical: critical}, nil
}

// Patient returns one patient's demographics.
func (c *Client) Patient(ctx context.Context, id string) (clinical.Patient, error) {
	body, err := c.get(ctx, RoutePatient, nil, map[string]string{"id": id})
	if err != nil {
		return clinical.Patient{}, err
	}
	var p clinical.Patient
	if err := json.Unmarshal(body, &p); err != nil {
		return clinical.Patient{}, malformed(RoutePatient, "%v", err)
	}
	if p.ID == "" {
		return clinical.Patient{}, malformed(RoutePatient, "missing patient_id")
	}
	return p, nil
}

// Summary returns the condensed record behind the summary view.
func (c *Client) Summary(ctx context.Context, id string) (clinical.SummaryRecord, error) {
	body, err := c.get(ctx, RoutePipelineSimple, nil, map[string]string{"id": id})
	if err != nil {
		return clinical.SummaryRecord{}, err
	}
	var wire struct {
		Patient *clinical.SummaryPatient `json:"patient"`
		clinical.SummaryRecord
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return clinical.SummaryRecord{}, malformed(RoutePipelineSimple, "%v", err)
	}
	if wire.Patient == nil {
		return clinical.SummaryRecord{}, malformed(RoutePipelineSimple, "missing patient")
	}
	rec := wire.SummaryRecord
	rec.Patient = *wire.Patient
	return rec, nil
}

// Pipeline returns the verbose pipeline dump behind the full-detail view.
func (c *Client) Pipeline(ctx context.Context, id string) (clinical.PipelineResult, error) {
	body, err := c.get(ctx, RoutePipeline, nil, map[string]string{"id": id})
	if err != nil {
		return clinical.PipelineResult{}, err
	}
	var res clinical.PipelineResult
	if err := json.Unmarshal(body, &res); err != nil {
		return clinical.PipelineResult{}, malformed(RoutePipeline, "%v", err)
	}
	var missing []string
	if len(res.Bundle) == 0 {
		missing = append(missing, "bundle")
	}
	if len(res.CDS) == 0 {
		missing = append(missing, "cds")
	}
	if len(missing) > 0 {
		return clinical.PipelineResult{}, malformed(RoutePipeline, "missing %s", strings.Join(missing, ", "))
	}
	return res, nil
}
