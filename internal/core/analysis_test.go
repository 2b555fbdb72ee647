package core

import "testing"

func testAnalysis(weight float64, items ...ScoreItem) *AgentAnalysis {
	return &AgentAnalysis{AgentName: "test", Weight: weight, Items: items}
}

func TestAgentAnalysisScoring(t *testing.T) {
	a := testAnalysis(1.0,
		ScoreItem{Name: "a", MaxPoints: 10, ActualPoints: 8},
		ScoreItem{Name: "b", MaxPoints: 10, ActualPoints: 4},
	)

	if a.MaxPoints() != 20 {
		t.Errorf("MaxPoints() = %d, want 20", a.MaxPoints())
	}
	if a.ActualPoints() != 12 {
		t.Errorf("ActualPoints() = %d, want 12", a.ActualPoints())
	}
	if pct := a.Percentage(); pct != 60 {
		t.Errorf("Percentage() = %f, want 60", pct)
	}
}

func TestAgentAnalysisZeroMax(t *testing.T) {
	a := testAnalysis(1.0)
	if pct := a.Percentage(); pct != 0 {
		t.Errorf("Percentage() with no items = %f, want 0", pct)
	}
}

func TestWeightedPointsZeroWeight(t *testing.T) {
	a := testAnalysis(0,
		ScoreItem{Name: "a", MaxPoints: 10, ActualPoints: 10},
	)
	if wp := a.WeightedPoints(); wp != 0 {
		t.Errorf("WeightedPoints() = %f, want 0 for weight-0 agent", wp)
	}
	if wm := a.WeightedMax(); wm != 0 {
		t.Errorf("WeightedMax() = %f, want 0 for weight-0 agent", wm)
	}
}

func TestWeightedPointsScaling(t *testing.T) {
	a := testAnalysis(2.0,
		ScoreItem{Name: "a", MaxPoints: 10, ActualPoints: 5},
	)
	if wp := a.WeightedPoints(); wp != 10 {
		t.Errorf("WeightedPoints() = %f, want 10", wp)
	}
}

func TestEmptyNoteCount(t *testing.T) {
	a := testAnalysis(1.0,
		ScoreItem{Name: "a", MaxPoints: 5, Note: "specific observation"},
		ScoreItem{Name: "b", MaxPoints: 5},
		ScoreItem{Name: "c", MaxPoints: 5, Note: PlaceholderNote},
	)
	if n := a.EmptyNoteCount(); n != 2 {
		t.Errorf("EmptyNoteCount() = %d, want 2", n)
	}
}

func TestRecommendationPriority(t *testing.T) {
	high := Recommendation{Impact: ImpactHigh, Effort: EffortLow}
	low := Recommendation{Impact: ImpactLow, Effort: EffortHigh}

	if high.PriorityScore() != 9 {
		t.Errorf("high/low PriorityScore() = %d, want 9", high.PriorityScore())
	}
	if low.PriorityScore() != 1 {
		t.Errorf("low/high PriorityScore() = %d, want 1", low.PriorityScore())
	}
}

func TestRecommendationQuadrant(t *testing.T) {
	tests := []struct {
		impact Impact
		effort Effort
		want   MatrixQuadrant
	}{
		{ImpactHigh, EffortLow, QuadrantQuickWin},
		{ImpactHigh, EffortHigh, QuadrantStrategicBet},
		{ImpactLow, EffortLow, QuadrantLowHanging},
		{ImpactLow, EffortHigh, QuadrantDistraction},
	}
	for _, tt := range tests {
		r := Recommendation{Impact: tt.impact, Effort: tt.effort}
		if got := r.Quadrant(); got != tt.want {
			t.Errorf("Quadrant(%s,%s) = %s, want %s", tt.impact, tt.effort, got, tt.want)
		}
	}
}
