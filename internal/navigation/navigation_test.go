package navigation

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/linnemanlabs/triageboard/internal/clinical"
)

type fakeFetcher struct {
	mu          sync.Mutex
	calls       []string
	patientErr  error
	summaryErr  error
	pipelineErr error
}

func (f *fakeFetcher) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeFetcher) Patient(_ context.Context, id string) (clinical.Patient, error) {
	f.record("patient:" + id)
	return clinical.Patient{ID: clinical.PatientID(id), FirstName: "Ada"}, f.patientErr
}

func (f *fakeFetcher) Summary(_ context.Context, id string) (clinical.SummaryRecord, error) {
	f.record("summary:" + id)
	return clinical.SummaryRecord{Patient: clinical.SummaryPatient{Name: "Ada"}}, f.summaryErr
}

func (f *fakeFetcher) Pipeline(_ context.Context, id string) (clinical.PipelineResult, error) {
	f.record("pipeline:" + id)
	return clinical.PipelineResult{Bundle: []byte(`{}`), CDS: []byte(`{}`)}, f.pipelineErr
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeSummary},
		{"summary", ModeSummary},
		{"all_details", ModeAllDetails},
		{"bogus", ModeSummary},
		{"ALL_DETAILS", ModeSummary},
		{" all_details", ModeSummary},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		wantOK    bool
		wantID    string
		wantState DetailState
	}{
		{"no id", "mode=summary", false, "", ""},
		{"blank id", "id=%20%20", false, "", ""},
		{"mode absent", "id=7", true, "7", StateSummary},
		{"mode bogus", "id=7&mode=bogus", true, "7", StateSummary},
		{"summary", "id=7&mode=summary", true, "7", StateSummary},
		{"all details", "id=7&mode=all_details", true, "7", StateFullDetail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			sel, ok := Decode(q)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if sel.PatientID != tt.wantID {
				t.Errorf("PatientID = %q, want %q", sel.PatientID, tt.wantID)
			}
			if sel.State() != tt.wantState {
				t.Errorf("State = %q, want %q", sel.State(), tt.wantState)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	t.Parallel()

	l := Links("12 3")
	if l.Summary != "/patient?id=12+3&mode=summary" {
		t.Errorf("Summary = %q", l.Summary)
	}
	if l.FullDetail != "/patient?id=12+3&mode=all_details" {
		t.Errorf("FullDetail = %q", l.FullDetail)
	}
}

func TestNewController_NilFetcher_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("NewController(nil) did not panic")
		}
	}()
	NewController(nil)
}

func TestLoadQuery_FetchPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{"mode absent uses summary", url.Values{"id": {"7"}}, []string{"patient:7", "summary:7"}},
		{"mode bogus uses summary", url.Values{"id": {"7"}, "mode": {"bogus"}}, []string{"patient:7", "summary:7"}},
		{"all details uses pipeline", url.Values{"id": {"7"}, "mode": {"all_details"}}, []string{"patient:7", "pipeline:7"}},
		{"no id fetches nothing", url.Values{"mode": {"all_details"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeFetcher{}
			scr := NewController(f).LoadQuery(context.Background(), tt.query)

			if len(f.calls) != len(tt.want) {
				t.Fatalf("calls = %v, want %v", f.calls, tt.want)
			}
			for i := range tt.want {
				if f.calls[i] != tt.want[i] {
					t.Errorf("calls[%d] = %q, want %q", i, f.calls[i], tt.want[i])
				}
			}
			if tt.want == nil && !scr.Empty {
				t.Error("Empty = false for a query without id")
			}
		})
	}
}

func TestLoad_SectionsFailIndependently(t *testing.T) {
	t.Parallel()

	headerErr := errors.New("header down")
	f := &fakeFetcher{patientErr: headerErr}
	scr := NewController(f).Load(context.Background(), Selector{PatientID: "1", Mode: ModeSummary})

	if !errors.Is(scr.HeaderErr, headerErr) || scr.Patient != nil {
		t.Errorf("header = %v / %v, want failure", scr.Patient, scr.HeaderErr)
	}
	if scr.DetailErr != nil || scr.Summary == nil {
		t.Errorf("summary = %v / %v, want loaded", scr.Summary, scr.DetailErr)
	}

	detailErr := errors.New("pipeline down")
	f = &fakeFetcher{pipelineErr: detailErr}
	scr = NewController(f).Load(context.Background(), Selector{PatientID: "1", Mode: ModeAllDetails})

	if scr.HeaderErr != nil || scr.Patient == nil {
		t.Errorf("header = %v / %v, want loaded", scr.Patient, scr.HeaderErr)
	}
	if !errors.Is(scr.DetailErr, detailErr) || scr.Pipeline != nil || scr.Summary != nil {
		t.Errorf("detail = %v / %v / %v, want pipeline failure only", scr.Pipeline, scr.Summary, scr.DetailErr)
	}
}
