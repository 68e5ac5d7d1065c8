package view

import (
	"strings"
	"testing"

	"github.com/linnemanlabs/triageboard/internal/clinical"
	"github.com/linnemanlabs/triageboard/internal/severity"
)

func alerted(id string, alerts ...string) clinical.AlertedPatient {
	return clinical.AlertedPatient{
		Patient: clinical.Patient{ID: clinical.PatientID(id), FirstName: "Pat", LastName: id, Age: 50, Gender: "female"},
		Alerts:  alerts,
	}
}

func TestRenderCohortTable_AllAlertsInOrder(t *testing.T) {
	t.Parallel()

	alerts := []string{
		"Monitor potassium",
		"Heart failure risk",
		"Obesity: BMI 34",
		"Something unrecognised",
	}
	page := clinical.Erase(clinical.Page[clinical.AlertedPatient]{
		Items:    []clinical.AlertedPatient{alerted("1", alerts...)},
		Page:     1,
		PageSize: 10,
		Total:    1,
	})

	rows := RenderCohortTable(page)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Kind != RowAlerted || row.Status != nil {
		t.Errorf("Kind = %q Status = %v, want alerted row without status", row.Kind, row.Status)
	}
	if row.Age != "50" {
		t.Errorf("Age = %q, want 50", row.Age)
	}
	if len(row.Alerts) != 4 {
		t.Fatalf("badges = %d, want 4", len(row.Alerts))
	}
	wantTiers := []severity.Tier{severity.TierInfo, severity.TierCritical, severity.TierWarning, severity.TierInfo}
	for i, b := range row.Alerts {
		if b.Text != alerts[i] {
			t.Errorf("badge[%d].Text = %q, want %q", i, b.Text, alerts[i])
		}
		if b.Tier != wantTiers[i] {
			t.Errorf("badge[%d].Tier = %q, want %q", i, b.Tier, wantTiers[i])
		}
		if b.Class != BadgeClass(b.Tier) {
			t.Errorf("badge[%d].Class = %q", i, b.Class)
		}
	}
	if row.Headline != severity.TierCritical {
		t.Errorf("Headline = %q, want critical", row.Headline)
	}
	if row.Actions.Summary != "/patient?id=1&mode=summary" || row.Actions.FullDetail != "/patient?id=1&mode=all_details" {
		t.Errorf("Actions = %+v", row.Actions)
	}
}

func TestRenderCohortTable_NoAlertsPlaceholder(t *testing.T) {
	t.Parallel()

	page := clinical.Erase(clinical.Page[clinical.AlertedPatient]{
		Items:    []clinical.AlertedPatient{alerted("2")},
		Page:     1,
		PageSize: 10,
		Total:    1,
	})
	row := RenderCohortTable(page)[0]
	if len(row.Alerts) != 1 {
		t.Fatalf("badges = %d, want 1 placeholder", len(row.Alerts))
	}
	if row.Alerts[0].Text != NoAlerts || row.Alerts[0].Tier != severity.TierNone {
		t.Errorf("placeholder = %+v", row.Alerts[0])
	}
	if row.Headline != severity.TierNone {
		t.Errorf("Headline = %q, want none", row.Headline)
	}
}

func TestRenderCohortTable_OverviewRows(t *testing.T) {
	t.Parallel()

	page := clinical.Erase(clinical.Page[clinical.OverviewEntry]{
		Items: []clinical.OverviewEntry{
			{Patient: clinical.Patient{ID: "a"}, Status: clinical.StatusCritical},
			{Patient: clinical.Patient{ID: "b"}, Status: clinical.StatusNormal},
		},
		Page:     1,
		PageSize: 20,
		Total:    2,
	})

	rows := RenderCohortTable(page)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if r.Kind != RowOverview || r.Status == nil || r.Alerts != nil {
			t.Errorf("row %s: Kind=%q Status=%v Alerts=%v, want overview row with status only", r.PatientID, r.Kind, r.Status, r.Alerts)
		}
	}
	if rows[0].Status.Label != "Critical" || rows[0].Headline != severity.TierCritical {
		t.Errorf("critical row = %+v", rows[0])
	}
	if rows[1].Status.Label != "Normal" || rows[1].Headline != severity.TierNone {
		t.Errorf("normal row = %+v", rows[1])
	}
	if rows[1].Name != Missing || rows[1].MRN != Missing || rows[1].Age != Missing {
		t.Errorf("missing demographics = %q / %q / %q, want %q", rows[1].Name, rows[1].MRN, rows[1].Age, Missing)
	}
}

func TestRenderDirectory(t *testing.T) {
	t.Parallel()

	rows := RenderDirectory(clinical.Page[clinical.Patient]{
		Items:    []clinical.Patient{{ID: "x", FirstName: "A", LastName: "B"}, {ID: "y"}},
		Page:     1,
		PageSize: 20,
		Total:    2,
	})
	if len(rows) != 2 || rows[0].Name != "A B" || rows[1].PatientID != "y" {
		t.Errorf("rows = %+v", rows)
	}
	if rows[0].Kind != RowDirectory || rows[0].Alerts != nil || rows[0].Status != nil {
		t.Errorf("row[0] = %+v", rows[0])
	}
}

func TestRenderPager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   PagerInput
		want PagerView
	}{
		{
			name: "middle page",
			in:   PagerInput{Page: 3, PageSize: 5, Total: 23},
			want: PagerView{Page: 3, PageSize: 5, Total: 23, Start: 11, End: 15, LastPage: 5, HasPrev: true, HasNext: true, PrevPage: 2, NextPage: 4},
		},
		{
			name: "last partial page",
			in:   PagerInput{Page: 5, PageSize: 5, Total: 23},
			want: PagerView{Page: 5, PageSize: 5, Total: 23, Start: 21, End: 23, LastPage: 5, HasPrev: true, HasNext: false, PrevPage: 4, NextPage: 5},
		},
		{
			name: "empty",
			in:   PagerInput{Page: 1, PageSize: 5, Total: 0},
			want: PagerView{Page: 1, PageSize: 5, Total: 0, Start: 0, End: 0, LastPage: 1, HasPrev: false, HasNext: false, PrevPage: 1, NextPage: 1},
		},
		{
			name: "first page",
			in:   PagerInput{Page: 1, PageSize: 10, Total: 10},
			want: PagerView{Page: 1, PageSize: 10, Total: 10, Start: 1, End: 10, LastPage: 1, HasPrev: false, HasNext: false, PrevPage: 1, NextPage: 1},
		},
		{
			name: "beyond last",
			in:   PagerInput{Page: 9, PageSize: 5, Total: 12},
			want: PagerView{Page: 9, PageSize: 5, Total: 12, Start: 0, End: 0, LastPage: 3, HasPrev: true, HasNext: false, PrevPage: 8, NextPage: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RenderPager(tt.in); got != tt.want {
				t.Errorf("RenderPager(%+v)\n got %+v\nwant %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderSummaryCard(t *testing.T) {
	t.Parallel()

	t.Run("empty record", func(t *testing.T) {
		t.Parallel()

		v := RenderSummaryCard(clinical.SummaryRecord{})
		if len(v.Conditions) != 1 || v.Conditions[0] != NoneDocumented {
			t.Errorf("Conditions = %v, want [%q]", v.Conditions, NoneDocumented)
		}
		if len(v.Medications) != 0 || v.MedicationsEmpty != NoneDocumented {
			t.Errorf("Medications = %v empty=%q", v.Medications, v.MedicationsEmpty)
		}
		if len(v.Vitals) != 0 || v.VitalsEmpty != NoVitals {
			t.Errorf("Vitals = %v empty=%q", v.Vitals, v.VitalsEmpty)
		}
		if v.Name != Missing || v.DOB != Missing || v.Gender != Missing {
			t.Errorf("header = %q/%q/%q, want placeholders", v.Name, v.DOB, v.Gender)
		}
		if len(v.Alerts) != 1 || v.Alerts[0].Text != NoAlerts {
			t.Errorf("Alerts = %v", v.Alerts)
		}
	})

	t.Run("one condition", func(t *testing.T) {
		t.Parallel()

		v := RenderSummaryCard(clinical.SummaryRecord{Conditions: []string{"Type 2 Diabetes"}})
		if len(v.Conditions) != 1 || v.Conditions[0] != "Type 2 Diabetes" {
			t.Errorf("Conditions = %v", v.Conditions)
		}
	})

	t.Run("partial vitals", func(t *testing.T) {
		t.Parallel()

		v := RenderSummaryCard(clinical.SummaryRecord{
			Vitals:      clinical.Vitals{BMI: "31.2"},
			Medications: []clinical.Medication{{Medication: "Metformin", Instructions: "500mg twice daily"}},
		})
		if len(v.Vitals) != 1 || v.Vitals[0] != (VitalView{Label: "BMI", Value: "31.2"}) {
			t.Errorf("Vitals = %v", v.Vitals)
		}
		if v.VitalsEmpty != "" {
			t.Errorf("VitalsEmpty = %q, want empty", v.VitalsEmpty)
		}
		if v.MedicationsEmpty != "" || len(v.Medications) != 1 || v.Medications[0].Name != "Metformin" {
			t.Errorf("Medications = %v empty=%q", v.Medications, v.MedicationsEmpty)
		}
	})
}

func TestRenderPipeline(t *testing.T) {
	t.Parallel()

	v := RenderPipeline(clinical.PipelineResult{
		Bundle: []byte(`{"resourceType":"Bundle","entry":[]}`),
		CDS:    []byte(`{"alerts":["No critical alerts"]}`),
	})
	if !strings.Contains(v.Bundle, "\n  \"resourceType\": \"Bundle\"") {
		t.Errorf("Bundle not indented: %s", v.Bundle)
	}
	if len(v.Alerts) != 1 || v.Alerts[0].Tier != severity.TierNone {
		t.Errorf("Alerts = %v", v.Alerts)
	}

	v = RenderPipeline(clinical.PipelineResult{Bundle: []byte(`null`), CDS: []byte(`"opaque"`)})
	if v.Bundle != "null" || v.CDS != `"opaque"` || v.Alerts != nil {
		t.Errorf("opaque pipeline = %+v", v)
	}
}

func TestRenderRiskOverview(t *testing.T) {
	t.Parallel()

	v := RenderRiskOverview(clinical.Counts{Total: 40, Critical: 10})
	if v.Total != 40 || len(v.Slices) != 2 {
		t.Fatalf("overview = %+v", v)
	}
	if v.Slices[0].Count != 10 || v.Slices[0].Percent != 25 {
		t.Errorf("critical slice = %+v", v.Slices[0])
	}
	if v.Slices[1].Count != 30 || v.Slices[1].Percent != 75 {
		t.Errorf("normal slice = %+v", v.Slices[1])
	}

	empty := RenderRiskOverview(clinical.Counts{})
	for _, s := range empty.Slices {
		if s.Count != 0 || s.Percent != 0 {
			t.Errorf("empty slice = %+v", s)
		}
	}
}

func TestRenderPatientHeader(t *testing.T) {
	t.Parallel()

	h := RenderPatientHeader(clinical.Patient{ID: "9", FirstName: "Ada", Age: 61})
	if h.Name != "Ada" || h.Age != "61" || h.Gender != Missing || h.Race != Missing || h.MRN != Missing {
		t.Errorf("header = %+v", h)
	}
}

func FuzzBadges(f *testing.F) {
	f.Add("Heart failure risk")
	f.Add("")
	f.Add("No critical alerts")

	f.Fuzz(func(t *testing.T, text string) {
		got := Badges([]string{text, text})
		if len(got) != 2 || got[0] != got[1] {
			t.Fatalf("Badges(%q) = %v", text, got)
		}
		if got[0].Text != text || got[0].Class != BadgeClass(got[0].Tier) {
			t.Fatalf("badge = %+v", got[0])
		}
	})
}
