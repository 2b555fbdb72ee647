package core

import "sort"

// Outcome is the consulting-style band a score maps to.
type Outcome string

const (
	OutcomeAuthority     Outcome = "Market Authority"       // 95-100
	OutcomeLeader        Outcome = "Category Leader"        // 90-94
	OutcomeContender     Outcome = "Strong Contender"       // 80-89
	OutcomeDilutionRisk  Outcome = "Market Dilution Risk"   // 70-79
	OutcomeCommoditized  Outcome = "Commoditized Player"    // 60-69
	OutcomeAuthorityGap  Outcome = "Critical Authority Gap" // <60, trust/social modules
	OutcomeConversionGap Outcome = "Revenue Leak"           // <60, conversion modules
	OutcomeVisibilityGap Outcome = "Invisible Player"       // <60, everything else
)

// OutcomeFor maps a percentage to an outcome band. The module name picks
// the failure flavor below 60%.
func OutcomeFor(pct float64, module string) Outcome {
	switch {
	case pct >= 95:
		return OutcomeAuthority
	case pct >= 90:
		return OutcomeLeader
	case pct >= 80:
		return OutcomeContender
	case pct >= 70:
		return OutcomeDilutionRisk
	case pct >= 60:
		return OutcomeCommoditized
	}
	switch module {
	case "trust", "social", "social_listening":
		return OutcomeAuthorityGap
	case "conversion", "resource_hub":
		return OutcomeConversionGap
	default:
		return OutcomeVisibilityGap
	}
}

// Caveat records an agent whose result is degraded, skipped, or failed
// its quality gates. Caveats are always surfaced in the final artifact so
// it never looks complete while silently omitting a branch.
type Caveat struct {
	AgentName string `json:"agent_name"`
	Kind      string `json:"kind"` // skipped, failed, degraded, gate_failed
	Detail    string `json:"detail,omitempty"`
}

// Report is the frozen aggregation of all analyses, handed to rendering.
type Report struct {
	RunID       string           `json:"run_id"`
	Subject     string           `json:"subject"`
	Website     string           `json:"website"`
	Industry    string           `json:"industry,omitempty"`
	AuditDate   string           `json:"audit_date"`
	Analyst     string           `json:"analyst,omitempty"`
	Modules     []*AgentAnalysis `json:"modules"`
	Caveats     []Caveat         `json:"caveats,omitempty"`
	Segments    []Segment        `json:"segments,omitempty"`
	Critical    []CriticalPage   `json:"critical_pages,omitempty"`
	PagesSeen   int              `json:"pages_crawled"`
	Screenshots int              `json:"screenshots_captured"`
	Cycles      int              `json:"revision_cycles"`
}

// TotalWeightedPoints sums weighted points across modules. Weight-0
// modules drop out of both sides of the ratio.
func (r *Report) TotalWeightedPoints() float64 {
	total := 0.0
	for _, m := range r.Modules {
		total += m.WeightedPoints()
	}
	return total
}

// TotalWeightedMax sums weighted maximums across modules.
func (r *Report) TotalWeightedMax() float64 {
	total := 0.0
	for _, m := range r.Modules {
		total += m.WeightedMax()
	}
	return total
}

// OverallPercentage is the weighted aggregate score.
func (r *Report) OverallPercentage() float64 {
	max := r.TotalWeightedMax()
	if max == 0 {
		return 0
	}
	return r.TotalWeightedPoints() / max * 100
}

// OverallOutcome maps the aggregate score to an outcome band.
func (r *Report) OverallOutcome() Outcome {
	return OutcomeFor(r.OverallPercentage(), "")
}

// Module returns the analysis for a named agent, or nil.
func (r *Report) Module(name string) *AgentAnalysis {
	for _, m := range r.Modules {
		if m.AgentName == name {
			return m
		}
	}
	return nil
}

// AllRecommendations returns every recommendation sorted by priority.
func (r *Report) AllRecommendations() []Recommendation {
	var recs []Recommendation
	for _, m := range r.Modules {
		for _, rec := range m.Recommendations {
			if rec.Category == "" {
				rec.Category = m.Title
			}
			recs = append(recs, rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PriorityScore() > recs[j].PriorityScore()
	})
	return recs
}

// QuickWins returns up to n high-impact low-effort recommendations,
// padded with low-hanging fruit when there are not enough.
func (r *Report) QuickWins(n int) []Recommendation {
	var wins, lowHanging []Recommendation
	for _, rec := range r.AllRecommendations() {
		switch rec.Quadrant() {
		case QuadrantQuickWin:
			wins = append(wins, rec)
		case QuadrantLowHanging:
			lowHanging = append(lowHanging, rec)
		}
	}
	wins = append(wins, lowHanging...)
	if len(wins) > n {
		wins = wins[:n]
	}
	return wins
}

// TopStrengths returns the n highest-scoring items at or above 80%.
func (r *Report) TopStrengths(n int) []ScoreItem {
	return r.itemsByPct(n, func(pct float64) bool { return pct >= 80 }, true)
}

// CriticalGaps returns the n lowest-scoring items below 60%.
func (r *Report) CriticalGaps(n int) []ScoreItem {
	return r.itemsByPct(n, func(pct float64) bool { return pct < 60 }, false)
}

func (r *Report) itemsByPct(n int, keep func(float64) bool, desc bool) []ScoreItem {
	type scored struct {
		item ScoreItem
		pct  float64
	}
	var all []scored
	for _, m := range r.Modules {
		for _, item := range m.Items {
			if item.MaxPoints == 0 {
				continue
			}
			pct := float64(item.ActualPoints) / float64(item.MaxPoints) * 100
			if keep(pct) {
				all = append(all, scored{item, pct})
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if desc {
			return all[i].pct > all[j].pct
		}
		return all[i].pct < all[j].pct
	})
	if len(all) > n {
		all = all[:n]
	}
	items := make([]ScoreItem, len(all))
	for i, s := range all {
		items[i] = s.item
	}
	return items
}

// FrictionPoint is the cross-module pattern the synthesis step identifies
// as the root cause of growth stagnation.
type FrictionPoint struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	PrimarySymptom string `json:"primary_symptom"`
	BusinessImpact string `json:"business_impact"`
}

// Synthesize inspects cross-module outcome patterns and names the dominant
// friction point. Falls back to a generic gap when no pattern matches.
func (r *Report) Synthesize() FrictionPoint {
	outcome := func(name string) Outcome {
		if m := r.Module(name); m != nil {
			return OutcomeFor(m.Percentage(), name)
		}
		return ""
	}

	good := func(o Outcome) bool { return o == OutcomeAuthority || o == OutcomeLeader }
	gap := func(o Outcome) bool {
		return o == OutcomeAuthorityGap || o == OutcomeConversionGap || o == OutcomeVisibilityGap
	}

	seo, trust, content, positioning := outcome("seo"), outcome("trust"), outcome("content"), outcome("positioning")

	switch {
	case good(seo) && gap(trust):
		return FrictionPoint{
			Title:          "The Leaky Bucket Effect",
			Description:    "Traffic arrives but fails to convert because trust signals are missing.",
			PrimarySymptom: "High rank, low revenue",
			BusinessImpact: "Every visitor pays a trust tax, wasting paid and organic spend.",
		}
	case good(content) && (seo == OutcomeVisibilityGap || seo == OutcomeDilutionRisk):
		return FrictionPoint{
			Title:          "The Invisible Expert",
			Description:    "Content and authority are strong but the technical foundation keeps buyers from finding them.",
			PrimarySymptom: "Great product, no traffic",
			BusinessImpact: "Expertise is drowned out by weaker competitors with better distribution.",
		}
	case good(seo) && (positioning == OutcomeCommoditized || positioning == OutcomeAuthorityGap):
		return FrictionPoint{
			Title:          "The Commodity Trap",
			Description:    "Visibility is fine but the messaging fails to differentiate from cheaper competitors.",
			PrimarySymptom: "Price-based sales battles",
			BusinessImpact: "Competing on price instead of value erodes margin.",
		}
	}
	return FrictionPoint{
		Title:          "General Performance Gap",
		Description:    "Multiple areas for improvement identified across visibility, trust, and positioning.",
		PrimarySymptom: "Lower than expected growth",
		BusinessImpact: "Inefficient marketing spend",
	}
}
