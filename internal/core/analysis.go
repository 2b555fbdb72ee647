package core

import "time"

// Impact rates how much a recommendation moves the needle.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Effort rates how expensive a recommendation is to implement.
type Effort string

const (
	EffortHigh   Effort = "high"
	EffortMedium Effort = "medium"
	EffortLow    Effort = "low"
)

// MatrixQuadrant places a recommendation in the impact/effort 2x2 matrix.
type MatrixQuadrant string

const (
	QuadrantQuickWin     MatrixQuadrant = "quick_win"      // high impact, low effort
	QuadrantStrategicBet MatrixQuadrant = "strategic_bet"  // high impact, high effort
	QuadrantLowHanging   MatrixQuadrant = "low_hanging"    // low impact, low effort
	QuadrantDistraction  MatrixQuadrant = "distraction"    // low impact, high effort
)

// Recommendation is a single actionable finding.
type Recommendation struct {
	Issue    string `json:"issue"`
	Action   string `json:"action"`
	Impact   Impact `json:"impact"`
	Effort   Effort `json:"effort"`
	Category string `json:"category,omitempty"`
	PageURL  string `json:"page_url,omitempty"`
}

// PriorityScore ranks recommendations; higher is better.
func (r Recommendation) PriorityScore() int {
	impact := map[Impact]int{ImpactHigh: 3, ImpactMedium: 2, ImpactLow: 1}
	effort := map[Effort]int{EffortHigh: 1, EffortMedium: 2, EffortLow: 3}
	return impact[r.Impact] * effort[r.Effort]
}

// Quadrant returns the impact/effort matrix placement.
func (r Recommendation) Quadrant() MatrixQuadrant {
	if r.Impact == ImpactHigh {
		if r.Effort == EffortLow {
			return QuadrantQuickWin
		}
		return QuadrantStrategicBet
	}
	if r.Effort == EffortLow {
		return QuadrantLowHanging
	}
	return QuadrantDistraction
}

// ScoreItem is one scored criterion inside an analysis.
type ScoreItem struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	MaxPoints      int     `json:"max_points"`
	ActualPoints   int     `json:"actual_points"`
	Note           string  `json:"note,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
	PageURL        string  `json:"page_url,omitempty"`
}

// PlaceholderNote is what heuristic fallbacks write when they have nothing
// specific to say. The critique controller counts these against the
// empty-notes gate.
const PlaceholderNote = "manual review recommended"

// Empty reports whether the item carries no specific observation.
func (s ScoreItem) Empty() bool {
	return s.Note == "" || s.Note == PlaceholderNote
}

// AgentAnalysis is the structured result of exactly one agent run.
// Revisions replace the whole value; it is frozen once the critique
// controller reaches Done.
type AgentAnalysis struct {
	AgentName       string           `json:"agent_name"`
	Title           string           `json:"title"`
	Weight          float64          `json:"weight"`
	Items           []ScoreItem      `json:"items"`
	Findings        string           `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`
	RevisionCount   int              `json:"revision_count"`
	QualityPass     bool             `json:"quality_pass"`
	Degraded        bool             `json:"degraded,omitempty"` // produced without the analysis capability
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     time.Time        `json:"completed_at"`
}

// MaxPoints sums the maximum points across all items.
func (a *AgentAnalysis) MaxPoints() int {
	total := 0
	for _, item := range a.Items {
		total += item.MaxPoints
	}
	return total
}

// ActualPoints sums the awarded points across all items.
func (a *AgentAnalysis) ActualPoints() int {
	total := 0
	for _, item := range a.Items {
		total += item.ActualPoints
	}
	return total
}

// Percentage returns the score as a percentage of the maximum.
func (a *AgentAnalysis) Percentage() float64 {
	max := a.MaxPoints()
	if max == 0 {
		return 0
	}
	return float64(a.ActualPoints()) / float64(max) * 100
}

// WeightedPoints returns points scaled by the agent's weight.
// Weight-0 agents contribute nothing regardless of their items.
func (a *AgentAnalysis) WeightedPoints() float64 {
	return float64(a.ActualPoints()) * a.Weight
}

// WeightedMax returns the maximum points scaled by the agent's weight.
func (a *AgentAnalysis) WeightedMax() float64 {
	return float64(a.MaxPoints()) * a.Weight
}

// EmptyNoteCount returns how many items lack a specific observation.
func (a *AgentAnalysis) EmptyNoteCount() int {
	n := 0
	for _, item := range a.Items {
		if item.Empty() {
			n++
		}
	}
	return n
}
