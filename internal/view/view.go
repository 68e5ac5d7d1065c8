// Package view composes display structures from fetched clinical data. It
// owns presentation-only state such as badge styles and placeholders and
// knows nothing about markup.
package view

import (
	"strconv"

	"github.com/linnemanlabs/triageboard/internal/clinical"
	"github.com/linnemanlabs/triageboard/internal/navigation"
	"github.com/linnemanlabs/triageboard/internal/severity"
)

const (
	NoAlerts       = "No alerts"
	NoneDocumented = "None documented"
	NoVitals       = "No vitals found"
	Missing        = "-"
)

// AlertBadge is one classified alert.
type AlertBadge struct {
	Text  string        `json:"text"`
	Tier  severity.Tier `json:"tier"`
	Class string        `json:"class"`
}

// BadgeClass is the style class for a tier.
func BadgeClass(t severity.Tier) string {
	switch t {
	case severity.TierCritical:
		return "badge badge-critical"
	case severity.TierWarning:
		return "badge badge-warning"
	case severity.TierInfo:
		return "badge badge-info"
	default:
		return "badge badge-none"
	}
}

func badge(text string, tier severity.Tier) AlertBadge {
	return AlertBadge{Text: text, Tier: tier, Class: BadgeClass(tier)}
}

// Badges classifies every alert, in order. No alerts yields the single
// "No alerts" placeholder with tier none.
func Badges(alerts []clinical.AlertText) []AlertBadge {
	if len(alerts) == 0 {
		return []AlertBadge{badge(NoAlerts, severity.TierNone)}
	}
	out := make([]AlertBadge, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, badge(a, severity.Classify(a)))
	}
	return out
}

// StatusBadge is the critical/normal flag of an overview row.
type StatusBadge struct {
	Status clinical.Status `json:"status"`
	Label  string          `json:"label"`
	Class  string          `json:"class"`
}

func statusBadge(s clinical.Status) *StatusBadge {
	if s == clinical.StatusCritical {
		return &StatusBadge{Status: s, Label: "Critical", Class: BadgeClass(severity.TierCritical)}
	}
	return &StatusBadge{Status: s, Label: "Normal", Class: BadgeClass(severity.TierNone)}
}

// RowKind tells the two cohort row shapes and the directory row apart.
type RowKind string

const (
	RowAlerted   RowKind = "alerted"
	RowOverview  RowKind = "overview"
	RowDirectory RowKind = "directory"
)

// RowView is one table row. Alerted rows carry Alerts, overview rows carry
// Status; directory rows carry neither.
type RowView struct {
	Kind      RowKind              `json:"kind"`
	PatientID string               `json:"patient_id"`
	MRN       string               `json:"mrn"`
	Name      string               `json:"name"`
	Age       string               `json:"age"`
	Gender    string               `json:"gender"`
	Alerts    []AlertBadge         `json:"alerts,omitempty"`
	Status    *StatusBadge         `json:"status,omitempty"`
	Headline  severity.Tier        `json:"headline"`
	Actions   navigation.ModeLinks `json:"actions"`
}

func baseRow(kind RowKind, p clinical.Patient) RowView {
	id := string(p.ID)
	return RowView{
		Kind:      kind,
		PatientID: id,
		MRN:       orMissing(p.MRN),
		Name:      orMissing(p.FullName()),
		Age:       ageText(p.Age),
		Gender:    orMissing(p.Gender),
		Headline:  severity.TierNone,
		Actions:   navigation.Links(id),
	}
}

// RenderCohortTable returns one row per item, in page order.
func RenderCohortTable(p clinical.Page[clinical.CohortItem]) []RowView {
	rows := make([]RowView, 0, len(p.Items))
	for _, item := range p.Items {
		switch it := item.(type) {
		case clinical.AlertedPatient:
			row := baseRow(RowAlerted, it.Patient)
			row.Alerts = Badges(it.Alerts)
			tiers := make([]severity.Tier, 0, len(row.Alerts))
			for _, b := range row.Alerts {
				tiers = append(tiers, b.Tier)
			}
			row.Headline = severity.Highest(tiers...)
			rows = append(rows, row)
		case clinical.OverviewEntry:
			row := baseRow(RowOverview, it.Patient)
			row.Status = statusBadge(it.Status)
			if it.Status == clinical.StatusCritical {
				row.Headline = severity.TierCritical
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// RenderDirectory returns plain patient rows, in page order.
func RenderDirectory(p clinical.Page[clinical.Patient]) []RowView {
	rows := make([]RowView, 0, len(p.Items))
	for _, pt := range p.Items {
		rows = append(rows, baseRow(RowDirectory, pt))
	}
	return rows
}

// PatientHeader is the identity block on top of a detail screen.
type PatientHeader struct {
	PatientID string `json:"patient_id"`
	MRN       string `json:"mrn"`
	Name      string `json:"name"`
	Age       string `json:"age"`
	Gender    string `json:"gender"`
	Race      string `json:"race"`
}

// RenderPatientHeader fills empty demographics with "-".
func RenderPatientHeader(p clinical.Patient) PatientHeader {
	return PatientHeader{
		PatientID: string(p.ID),
		MRN:       orMissing(p.MRN),
		Name:      orMissing(p.FullName()),
		Age:       ageText(p.Age),
		Gender:    orMissing(p.Gender),
		Race:      orMissing(p.Race),
	}
}

func ageText(age int) string {
	if age <= 0 {
		return Missing
	}
	return strconv.Itoa(age)
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}
