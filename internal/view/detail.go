package view

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/linnemanlabs/triageboard/internal/clinical"
	"github.com/linnemanlabs/triageboard/internal/severity"
)

// SummaryView is the condensed patient card.
type SummaryView struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`

	Conditions []string `json:"conditions"`

	Medications []MedicationView `json:"medications"`
	// MedicationsEmpty is the empty-state message, set only when there are
	// no medications.
	MedicationsEmpty string `json:"medications_empty,omitempty"`

	Vitals []VitalView `json:"vitals"`
	// VitalsEmpty is set only when neither reading is present.
	VitalsEmpty string `json:"vitals_empty,omitempty"`

	Alerts []AlertBadge `json:"alerts"`
}

// MedicationView is one medication line.
type MedicationView struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// VitalView is one labelled reading.
type VitalView struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RenderSummaryCard composes the summary card with its placeholders.
func RenderSummaryCard(rec clinical.SummaryRecord) SummaryView {
	v := SummaryView{
		Name:   orMissing(strings.TrimSpace(rec.Patient.Name)),
		DOB:    orMissing(rec.Patient.DOB),
		Gender: orMissing(rec.Patient.Gender),
		Alerts: Badges(rec.Alerts),
	}

	if len(rec.Conditions) == 0 {
		v.Conditions = []string{NoneDocumented}
	} else {
		v.Conditions = append([]string(nil), rec.Conditions...)
	}

	v.Medications = make([]MedicationView, 0, len(rec.Medications))
	for _, m := range rec.Medications {
		v.Medications = append(v.Medications, MedicationView{Name: m.Medication, Instructions: m.Instructions})
	}
	if len(v.Medications) == 0 {
		v.MedicationsEmpty = NoneDocumented
	}

	v.Vitals = make([]VitalView, 0, 2)
	if rec.Vitals.BloodPressure.Present() {
		v.Vitals = append(v.Vitals, VitalView{Label: "Blood Pressure", Value: string(rec.Vitals.BloodPressure)})
	}
	if rec.Vitals.BMI.Present() {
		v.Vitals = append(v.Vitals, VitalView{Label: "BMI", Value: string(rec.Vitals.BMI)})
	}
	if len(v.Vitals) == 0 {
		v.VitalsEmpty = NoVitals
	}
	return v
}

// PipelineView is the verbose full-detail dump.
type PipelineView struct {
	Bundle string `json:"bundle"`
	CDS    string `json:"cds"`
	// Alerts holds the classified cds.alerts, nil when cds carries no list.
	Alerts []AlertBadge `json:"alerts,omitempty"`
}

// RenderPipeline pretty-prints both parts of the pipeline result.
func RenderPipeline(res clinical.PipelineResult) PipelineView {
	v := PipelineView{
		Bundle: indentJSON(res.Bundle),
		CDS:    indentJSON(res.CDS),
	}
	if alerts := res.CDSAlerts(); len(alerts) > 0 {
		v.Alerts = Badges(alerts)
	}
	return v
}

func indentJSON(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// RiskSlice is one segment of the risk overview.
type RiskSlice struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Class   string  `json:"class"`
}

// RiskOverview is the critical vs normal split of the population.
type RiskOverview struct {
	Total  int         `json:"total"`
	Slices []RiskSlice `json:"slices"`
}

// RenderRiskOverview splits the population into critical and normal. Percent
// is 0 for both slices of an empty population.
func RenderRiskOverview(c clinical.Counts) RiskOverview {
	critical := max(c.Critical, 0)
	normal := c.Normal()
	denom := critical + normal

	pct := func(n int) float64 {
		if denom == 0 {
			return 0
		}
		return float64(n) * 100 / float64(denom)
	}
	return RiskOverview{
		Total: max(c.Total, 0),
		Slices: []RiskSlice{
			{Label: "Critical", Count: critical, Percent: pct(critical), Class: BadgeClass(severity.TierCritical)},
			{Label: "Normal", Count: normal, Percent: pct(normal), Class: BadgeClass(severity.TierNone)},
		},
	}
}
