// Package severity assigns a display tier to the alert strings produced by the
// clinical backend. It only reclassifies text; it never derives alerts.
package severity

import "strings"

// Tier is the display emphasis of one alert.
type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierInfo     Tier = "info"
	TierNone     Tier = "none"
)

// Rank orders tiers from least (0) to most severe.
func (t Tier) Rank() int {
	switch t {
	case TierCritical:
		return 3
	case TierWarning:
		return 2
	case TierInfo:
		return 1
	default:
		return 0
	}
}

// rule is one (predicate, tier) pair. Rules are evaluated in slice order and
// the first match wins, so earlier tiers dominate regardless of where their
// keyword appears in the text.
type rule struct {
	keywords []string
	tier     Tier
}

func (r rule) matches(lower string) bool {
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// "hypertension detected" (an acute event) and "hypertension:" (a recorded
// reading) are distinct keywords in different tiers.
var rules = []rule{
	{keywords: []string{"heart failure", "hypertension detected", "elevated creatinine", "high ldl"}, tier: TierCritical},
	{keywords: []string{"obesity", "low hdl", "hypertension:", "diabetes", "bmi"}, tier: TierWarning},
	{keywords: []string{"copd", "monitor", "ensure"}, tier: TierInfo},
	{keywords: []string{"no critical alerts"}, tier: TierNone},
}

// Classify maps alert text to a tier. It is total: unrecognized text,
// including the empty string, is TierInfo.
func Classify(text string) Tier {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.matches(lower) {
			return r.tier
		}
	}
	return TierInfo
}

// Highest returns the most severe of the given tiers, TierNone for none.
func Highest(tiers ...Tier) Tier {
	best := TierNone
	for _, t := range tiers {
		if t.Rank() > best.Rank() {
			best = t
		}
	}
	return best
}
