package clinical

import (
	"bytes"
	"encoding/json"
)

// SummaryRecord is the condensed per-patient record behind the summary view.
type SummaryRecord struct {
	Patient     SummaryPatient `json:"patient"`
	Conditions  []string       `json:"conditions"`
	Medications []Medication   `json:"medications"`
	Vitals      Vitals         `json:"vitals"`
	Alerts      []AlertText    `json:"alerts"`
}

// SummaryPatient is the header block of a SummaryRecord.
type SummaryPatient struct {
	Name   string `json:"name"`
	DOB    string `json:"dob"`
	Gender string `json:"gender"`
}

// Medication is one active medication and how to take it.
type Medication struct {
	Medication   string `json:"medication"`
	Instructions string `json:"instructions"`
}

// Vitals holds the latest readings; either may be absent.
type Vitals struct {
	BloodPressure Reading `json:"blood_pressure"`
	BMI           Reading `json:"bmi"`
}

// PipelineResult is the verbose pipeline dump behind the full-detail view.
// Both parts are opaque to triageboard.
type PipelineResult struct {
	Bundle json.RawMessage `json:"bundle"`
	CDS    json.RawMessage `json:"cds"`
}

// CDSAlerts returns cds.alerts when the decision-support block carries a list
// of alert strings, and nil otherwise.
func (p PipelineResult) CDSAlerts() []AlertText {
	if len(bytes.TrimSpace(p.CDS)) == 0 {
		return nil
	}
	var cds struct {
		Alerts []AlertText `json:"alerts"`
	}
	if err := json.Unmarshal(p.CDS, &cds); err != nil {
		return nil
	}
	return cds.Alerts
}

// Counts are the population figures behind the risk overview.
type Counts struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
}

// Normal is the number of patients without a critical flag.
func (c Counts) Normal() int {
	if n := c.Total - c.Critical; n > 0 {
		return n
	}
	return 0
}
