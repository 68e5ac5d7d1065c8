// Package navigation decodes the patient detail selection from URL state and
// loads the data for the selected screen.
//
// A mode switch is a redirect to a new URL, never an in-place transition, so
// every detail screen is fully described by its query string.
package navigation

import (
	"context"
	"net/url"
	"strings"

	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/triageboard/internal/clinical"
)

// DetailPath is the route of the patient detail screen.
const DetailPath = "/patient"

// Mode is the display mode requested in the URL.
type Mode string

const (
	ModeSummary    Mode = "summary"
	ModeAllDetails Mode = "all_details"
)

// ParseMode returns ModeAllDetails only for the exact string "all_details".
// Anything else, including the empty string, is ModeSummary.
func ParseMode(s string) Mode {
	if Mode(s) == ModeAllDetails {
		return ModeAllDetails
	}
	return ModeSummary
}

// DetailState is the screen actually rendered for a selection.
type DetailState string

const (
	StateSummary    DetailState = "summary"
	StateFullDetail DetailState = "full_detail"
)

// Selector identifies one patient detail screen.
type Selector struct {
	PatientID string
	Mode      Mode
}

// Decode reads id and mode from a query. It returns false when no patient id
// is present; callers must then render nothing and fetch nothing.
func Decode(q url.Values) (Selector, bool) {
	id := strings.TrimSpace(q.Get("id"))
	if id == "" {
		return Selector{}, false
	}
	return Selector{PatientID: id, Mode: ParseMode(q.Get("mode"))}, true
}

// State maps the selector to the screen it renders.
func (s Selector) State() DetailState {
	if s.Mode == ModeAllDetails {
		return StateFullDetail
	}
	return StateSummary
}

// TargetURL is the URL of the detail screen for id in the given mode.
func TargetURL(id string, mode Mode) string {
	q := url.Values{}
	q.Set("id", id)
	q.Set("mode", string(mode))
	return DetailPath + "?" + q.Encode()
}

// ModeLinks are the targets of the two mode-switch controls.
type ModeLinks struct {
	Summary    string `json:"summary"`
	FullDetail string `json:"full_detail"`
}

// Links returns both mode-switch targets for a patient.
func Links(id string) ModeLinks {
	return ModeLinks{
		Summary:    TargetURL(id, ModeSummary),
		FullDetail: TargetURL(id, ModeAllDetails),
	}
}

// Fetcher loads the per-patient data behind detail screens.
type Fetcher interface {
	Patient(ctx context.Context, id string) (clinical.Patient, error)
	Summary(ctx context.Context, id string) (clinical.SummaryRecord, error)
	Pipeline(ctx context.Context, id string) (clinical.PipelineResult, error)
}

// Screen is the loaded data of one detail screen. The header section and the
// detail section fail independently; a failed section has a nil value and a
// non-nil error.
type Screen struct {
	Selector Selector
	State    DetailState
	// Empty is set when the URL named no patient. Nothing was fetched.
	Empty bool

	Patient   *clinical.Patient
	HeaderErr error

	Summary   *clinical.SummaryRecord
	Pipeline  *clinical.PipelineResult
	DetailErr error
}

// Controller drives detail screen loads.
type Controller struct {
	fetcher Fetcher
}

// NewController creates a Controller. It panics if fetcher is nil.
func NewController(fetcher Fetcher) *Controller {
	if fetcher == nil {
		panic(xerrors.New("navigation controller requires a non-nil fetcher"))
	}
	return &Controller{fetcher: fetcher}
}

// LoadQuery decodes q and loads the selected screen. A query without a patient
// id yields an empty screen.
func (c *Controller) LoadQuery(ctx context.Context, q url.Values) Screen {
	sel, ok := Decode(q)
	if !ok {
		return Screen{Empty: true, State: StateSummary}
	}
	return c.Load(ctx, sel)
}

// Load fetches the patient header and then exactly one of the condensed
// record (summary) or the pipeline dump (full detail).
func (c *Controller) Load(ctx context.Context, sel Selector) Screen {
	scr := Screen{Selector: sel, State: sel.State()}

	if p, err := c.fetcher.Patient(ctx, sel.PatientID); err != nil {
		scr.HeaderErr = err
	} else {
		scr.Patient = &p
	}

	switch scr.State {
	case StateFullDetail:
		if res, err := c.fetcher.Pipeline(ctx, sel.PatientID); err != nil {
			scr.DetailErr = err
		} else {
			scr.Pipeline = &res
		}
	default:
		if rec, err := c.fetcher.Summary(ctx, sel.PatientID); err != nil {
			scr.DetailErr = err
		} else {
			scr.Summary = &rec
		}
	}
	return scr
}
