package clinical

import "fmt"

// Cohort names one of the patient groupings shown as a list screen.
type Cohort string

const (
	CohortCritical Cohort = "critical"
	CohortNormal   Cohort = "normal"
	CohortAll      Cohort = "all"
)

// Cohorts lists every cohort in display order.
var Cohorts = []Cohort{CohortCritical, CohortNormal, CohortAll}

// ParseCohort validates a cohort name taken from a URL.
func ParseCohort(s string) (Cohort, error) {
	switch c := Cohort(s); c {
	case CohortCritical, CohortNormal, CohortAll:
		return c, nil
	}
	return "", fmt.Errorf("unknown cohort %q", s)
}

// Title is the heading used for the cohort's screen.
func (c Cohort) Title() string {
	switch c {
	case CohortCritical:
		return "Critical Patients"
	case CohortNormal:
		return "Normal Patients"
	case CohortAll:
		return "All Patients"
	}
	return string(c)
}

// CohortItem is one row of a cohort listing. It is either an AlertedPatient
// (critical and normal listings) or an OverviewEntry (all-patients overview).
type CohortItem interface {
	Subject() Patient
	cohortItem()
}

// AlertedPatient is a patient together with every alert the backend raised.
type AlertedPatient struct {
	Patient Patient     `json:"patient"`
	Alerts  []AlertText `json:"alerts"`
}

func (a AlertedPatient) Subject() Patient { return a.Patient }
func (AlertedPatient) cohortItem()        {}

// Status is the overview flag of a patient.
type Status string

const (
	StatusCritical Status = "critical"
	StatusNormal   Status = "normal"
)

// OverviewEntry is a patient with its critical/normal flag instead of alerts.
type OverviewEntry struct {
	Patient Patient `json:"patient"`
	Status  Status  `json:"status"`
}

func (o OverviewEntry) Subject() Patient { return o.Patient }
func (OverviewEntry) cohortItem()        {}
