package severity

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want Tier
	}{
		// tier 1
		{"Heart failure risk: BNP elevated", TierCritical},
		{"Hypertension detected: 182/110", TierCritical},
		{"Elevated creatinine (2.1 mg/dL)", TierCritical},
		{"High LDL cholesterol: consider statin", TierCritical},
		// tier 2
		{"Obesity: BMI 34", TierWarning},
		{"Low HDL cholesterol", TierWarning},
		{"Hypertension: 142/91", TierWarning},
		{"Type 2 diabetes, A1c 8.1", TierWarning},
		{"BMI above target", TierWarning},
		// tier 3
		{"COPD exacerbation history", TierInfo},
		{"Monitor potassium", TierInfo},
		{"Ensure annual eye exam", TierInfo},
		// tier 4
		{"No critical alerts", TierNone},
		{"NO CRITICAL ALERTS", TierNone},
		{"no critical alerts found", TierNone},
		// fallback
		{"", TierInfo},
		{"Patient prefers morning appointments", TierInfo},
		{"   ", TierInfo},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want Tier
	}{
		{"heart failure and diabetes", TierCritical},
		{"diabetes and heart failure", TierCritical},
		{"Diabetes: monitor glucose", TierWarning},
		{"monitor for obesity", TierWarning},
		{"Ensure follow-up; no critical alerts", TierInfo},
		{"no critical alerts but high LDL", TierCritical},
		{"hypertension: reading logged, hypertension detected on repeat", TierCritical},
	}

	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestClassify_HypertensionFormsStayDistinct(t *testing.T) {
	t.Parallel()

	if got := Classify("Hypertension: 140/90"); got != TierWarning {
		t.Errorf("recorded reading = %q, want %q", got, TierWarning)
	}
	if got := Classify("Hypertension detected"); got != TierCritical {
		t.Errorf("detected event = %q, want %q", got, TierCritical)
	}
	// neither literal form
	if got := Classify("history of hypertension"); got != TierInfo {
		t.Errorf("bare mention = %q, want %q", got, TierInfo)
	}
}

func TestHighest(t *testing.T) {
	t.Parallel()

	if got := Highest(); got != TierNone {
		t.Errorf("Highest() = %q, want %q", got, TierNone)
	}
	if got := Highest(TierInfo, TierCritical, TierWarning); got != TierCritical {
		t.Errorf("Highest = %q, want %q", got, TierCritical)
	}
	if got := Highest(TierNone, TierInfo); got != TierInfo {
		t.Errorf("Highest = %q, want %q", got, TierInfo)
	}
}

func FuzzClassify(f *testing.F) {
	seeds := []string{
		"",
		"heart failure and diabetes",
		"No critical alerts",
		"Hypertension: 120/80",
		"\x00\xff",
		strings.Repeat("monitor ", 500),
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, s string) {
		first := Classify(s)
		switch first {
		case TierCritical, TierWarning, TierInfo, TierNone:
		default:
			t.Fatalf("Classify(%q) = %q, not a known tier", s, first)
		}
		if again := Classify(s); again != first {
			t.Fatalf("Classify(%q) not deterministic: %q then %q", s, first, again)
		}
		if upper := Classify(strings.ToUpper(s)); strings.ToLower(strings.ToUpper(s)) == strings.ToLower(s) && upper != first {
			t.Fatalf("Classify is case sensitive for %q: %q vs %q", s, first, upper)
		}
	})
}
