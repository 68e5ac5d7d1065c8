// Package cohort keeps the pagination state of each patient cohort and the
// page currently shown for it.
//
// Requests for the same cohort may overlap. The store never cancels one; it
// numbers them instead and only the most recently issued request may commit.
package cohort

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/triageboard/internal/clinical"
)

var (
	// ErrUnknownCohort is returned for a cohort the store does not hold.
	ErrUnknownCohort = errors.New("unknown cohort")

	// ErrSuperseded is returned when a newer request for the same cohort was
	// issued while this one was in flight. Its response was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// DefaultPageSizes are the page sizes used when none is configured.
var DefaultPageSizes = map[clinical.Cohort]int{
	clinical.CohortCritical: 10,
	clinical.CohortNormal:   10,
	clinical.CohortAll:      20,
}

// Fetcher loads one page of a cohort.
type Fetcher interface {
	FetchCohort(ctx context.Context, cohort clinical.Cohort, page, pageSize int) (clinical.Page[clinical.CohortItem], error)
}

// Hooks lets callers observe page loads. Outcome is "ok", "error" or "stale".
type Hooks struct {
	OnLoad func(cohort clinical.Cohort, outcome string)
}

// State is the pagination state of one cohort. Page, PageSize and Total are
// those reported by the most recent successful fetch; before it, PageSize is
// the configured request size.
type State struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Loaded   bool `json:"loaded"`
}

// LastPage is max(1, ceil(Total/PageSize)).
func (s State) LastPage() int {
	return clinical.LastPage(s.Total, s.PageSize)
}

// Step returns the page delta pages away, bounded to [1, LastPage].
func (s State) Step(delta int) int {
	return min(max(s.Page+delta, 1), s.LastPage())
}

type entry struct {
	size    int
	state   State
	current clinical.Page[clinical.CohortItem]
	issued  uint64
}

// Store holds one State per cohort.
type Store struct {
	fetcher Fetcher
	hooks   Hooks

	mu      sync.Mutex
	cohorts map[clinical.Cohort]*entry
}

// NewStore creates a store with one state per cohort, each on page 1. Sizes
// missing from sizes fall back to DefaultPageSizes.
func NewStore(fetcher Fetcher, sizes map[clinical.Cohort]int, hooks Hooks) *Store {
	if fetcher == nil {
		panic(xerrors.New("cohort store requires a non-nil fetcher"))
	}
	s := &Store{
		fetcher: fetcher,
		hooks:   hooks,
		cohorts: make(map[clinical.Cohort]*entry, len(clinical.Cohorts)),
	}
	for _, c := range clinical.Cohorts {
		size := sizes[c]
		if size <= 0 {
			size = DefaultPageSizes[c]
		}
		s.cohorts[c] = &entry{size: size, state: State{Page: 1, PageSize: size}}
	}
	return s
}

func (s *Store) lookup(cohort clinical.Cohort) (*entry, error) {
	e, ok := s.cohorts[cohort]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCohort, cohort)
	}
	return e, nil
}

func (s *Store) observe(cohort clinical.Cohort, outcome string) {
	if s.hooks.OnLoad != nil {
		s.hooks.OnLoad(cohort, outcome)
	}
}

// LoadPage fetches exactly the given page. On failure the state is left as it
// was and the fetcher's error is returned. A response that arrives after a
// newer request was issued is dropped with ErrSuperseded.
func (s *Store) LoadPage(ctx context.Context, cohort clinical.Cohort, page int) (clinical.Page[clinical.CohortItem], error) {
	e, err := s.lookup(cohort)
	if err != nil {
		return clinical.Page[clinical.CohortItem]{}, err
	}

	s.mu.Lock()
	e.issued++
	seq := e.issued
	size := e.size
	s.mu.Unlock()

	p, err := s.fetcher.FetchCohort(ctx, cohort, page, size)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != e.issued {
		s.observe(cohort, "stale")
		return clinical.Page[clinical.CohortItem]{}, ErrSuperseded
	}
	if err != nil {
		s.observe(cohort, "error")
		return clinical.Page[clinical.CohortItem]{}, fmt.Errorf("load %s page %d: %w", cohort, page, err)
	}

	// The backend may normalise the request; bounds follow what it served.
	e.state.Page = cmp.Or(p.Page, page)
	e.state.PageSize = cmp.Or(p.PageSize, size)
	e.state.Total = p.Total
	e.state.Loaded = true
	e.current = p
	s.observe(cohort, "ok")
	return copyPage(p), nil
}

// NextPage moves one page forward. At the last page it returns the current
// page without fetching. Before the first successful load it loads the
// current page.
func (s *Store) NextPage(ctx context.Context, cohort clinical.Cohort) (clinical.Page[clinical.CohortItem], error) {
	return s.step(ctx, cohort, 1)
}

// PrevPage moves one page back. On page 1 it returns the current page
// without fetching. Before the first successful load it loads the current
// page.
func (s *Store) PrevPage(ctx context.Context, cohort clinical.Cohort) (clinical.Page[clinical.CohortItem], error) {
	return s.step(ctx, cohort, -1)
}

func (s *Store) step(ctx context.Context, cohort clinical.Cohort, delta int) (clinical.Page[clinical.CohortItem], error) {
	e, err := s.lookup(cohort)
	if err != nil {
		return clinical.Page[clinical.CohortItem]{}, err
	}

	s.mu.Lock()
	st := e.state
	cur := copyPage(e.current)
	s.mu.Unlock()

	if !st.Loaded {
		return s.LoadPage(ctx, cohort, st.Page)
	}
	target := st.Step(delta)
	if target == st.Page {
		return cur, nil
	}
	return s.LoadPage(ctx, cohort, target)
}

// Current returns the last committed page of the cohort, and false if
// nothing has been loaded yet.
func (s *Store) Current(cohort clinical.Cohort) (clinical.Page[clinical.CohortItem], bool, error) {
	e, err := s.lookup(cohort)
	if err != nil {
		return clinical.Page[clinical.CohortItem]{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPage(e.current), e.state.Loaded, nil
}

// State returns the cohort's pagination state.
func (s *Store) State(cohort clinical.Cohort) (State, error) {
	e, err := s.lookup(cohort)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.state, nil
}

func copyPage(p clinical.Page[clinical.CohortItem]) clinical.Page[clinical.CohortItem] {
	p.Items = slices.Clone(p.Items)
	return p
}
