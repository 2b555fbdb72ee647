package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sitescope/sitescope/internal/core"
)

// stubAgent is a configurable agent for scheduler tests.
type stubAgent struct {
	name    string
	deps    []string
	weight  float64
	execute func(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error)
}

func (s *stubAgent) Name() string           { return s.name }
func (s *stubAgent) Title() string          { return s.name }
func (s *stubAgent) Dependencies() []string { return s.deps }
func (s *stubAgent) Weight() float64        { return s.weight }

func (s *stubAgent) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	if s.execute != nil {
		return s.execute(ctx, ac, fb)
	}
	return passingAnalysis(s.name, s.weight), nil
}

// passingAnalysis builds an analysis that clears all default gates.
func passingAnalysis(name string, weight float64) *core.AgentAnalysis {
	findings := ""
	for len(findings) < 120 {
		findings += "observed concrete evidence on the collected pages. "
	}
	return &core.AgentAnalysis{
		AgentName: name,
		Title:     name,
		Weight:    weight,
		Findings:  findings,
		Items: []core.ScoreItem{
			{Name: "a", MaxPoints: 10, ActualPoints: 8, Note: "clear headline"},
			{Name: "b", MaxPoints: 10, ActualPoints: 6, Note: "weak CTA"},
			{Name: "c", MaxPoints: 10, ActualPoints: 9, Note: "good schema"},
		},
		Recommendations: []core.Recommendation{
			{Issue: "weak CTA", Action: "rewrite", Impact: core.ImpactHigh, Effort: core.EffortLow},
			{Issue: "thin page", Action: "expand", Impact: core.ImpactMedium, Effort: core.EffortMedium},
		},
	}
}

func registryOf(t *testing.T, agents ...*stubAgent) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			t.Fatalf("Register(%s): %v", a.name, err)
		}
	}
	return r
}

func TestBuildPlanLayering(t *testing.T) {
	r := registryOf(t,
		&stubAgent{name: "website"},
		&stubAgent{name: "deep_research", deps: []string{"website"}},
		&stubAgent{name: "positioning", deps: []string{"website"}},
		&stubAgent{name: "prompt_visibility", deps: []string{"deep_research"}},
		&stubAgent{name: "top5_pages", deps: []string{"website", "positioning"}},
		&stubAgent{name: "social_listening"},
	)

	plan, err := BuildPlan(r)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}

	if got := plan.AgentCount(); got != 6 {
		t.Errorf("agent count = %d, want 6", got)
	}
	if len(plan.Phases) != 3 {
		t.Fatalf("phases = %d, want 3: %v", len(plan.Phases), plan.Phases)
	}

	// Every dependency must sit in a strictly earlier phase.
	for _, name := range r.Names() {
		agent, _ := r.Get(name)
		for _, dep := range agent.Dependencies() {
			if plan.PhaseOf(dep) >= plan.PhaseOf(name) {
				t.Errorf("%s (phase %d) depends on %s (phase %d)",
					name, plan.PhaseOf(name), dep, plan.PhaseOf(dep))
			}
		}
	}

	// Independent roots share phase 0.
	if plan.PhaseOf("website") != 0 || plan.PhaseOf("social_listening") != 0 {
		t.Errorf("roots not in phase 0: %v", plan.Phases)
	}
	if plan.PhaseOf("top5_pages") != 1 {
		t.Errorf("top5_pages phase = %d, want 1", plan.PhaseOf("top5_pages"))
	}
	if plan.PhaseOf("prompt_visibility") != 1 {
		t.Errorf("prompt_visibility phase = %d, want 1", plan.PhaseOf("prompt_visibility"))
	}
}

func TestBuildPlanCycle(t *testing.T) {
	r := registryOf(t,
		&stubAgent{name: "a", deps: []string{"c"}},
		&stubAgent{name: "b", deps: []string{"a"}},
		&stubAgent{name: "c", deps: []string{"b"}},
		&stubAgent{name: "independent"},
	)

	_, err := BuildPlan(r)
	if err == nil {
		t.Fatal("expected cycle error")
	}

	var de *core.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("error type = %T", err)
	}
	if de.Code != core.CodeCycleDetected {
		t.Errorf("code = %q, want %q", de.Code, core.CodeCycleDetected)
	}
	unplaced, _ := de.Details["unplaced"].([]string)
	if len(unplaced) != 3 {
		t.Errorf("unplaced = %v, want the three cycle members", unplaced)
	}
}

func TestBuildPlanSelfCycle(t *testing.T) {
	r := registryOf(t, &stubAgent{name: "a", deps: []string{"a"}})

	_, err := BuildPlan(r)
	if !errors.Is(err, core.ErrCycle(nil)) {
		t.Errorf("error = %v, want cycle", err)
	}
}

func TestBuildPlanUnknownDependency(t *testing.T) {
	r := registryOf(t, &stubAgent{name: "a", deps: []string{"ghost"}})

	_, err := BuildPlan(r)
	if err == nil {
		t.Fatal("expected unknown dependency error")
	}

	var de *core.DomainError
	if !errors.As(err, &de) || de.Code != core.CodeUnknownDependency {
		t.Errorf("error = %v, want %s", err, core.CodeUnknownDependency)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubAgent{name: "seo"}); err != nil {
		t.Fatal(err)
	}

	err := r.Register(&stubAgent{name: "seo"})
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
	var de *core.DomainError
	if !errors.As(err, &de) || de.Code != core.CodeDuplicateAgent {
		t.Errorf("error = %v, want %s", err, core.CodeDuplicateAgent)
	}
}

func TestBuildPlanEmpty(t *testing.T) {
	plan, err := BuildPlan(NewRegistry())
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if plan.AgentCount() != 0 || len(plan.Phases) != 0 {
		t.Errorf("empty registry plan = %+v", plan)
	}
}

func TestBuildPlanDeterministic(t *testing.T) {
	build := func() *core.ExecutionPlan {
		r := registryOf(t,
			&stubAgent{name: "website"},
			&stubAgent{name: "seo", deps: []string{"website"}},
			&stubAgent{name: "trust", deps: []string{"website"}},
			&stubAgent{name: "content", deps: []string{"website"}},
		)
		plan, err := BuildPlan(r)
		if err != nil {
			t.Fatal(err)
		}
		return plan
	}

	first := build()
	for i := 0; i < 5; i++ {
		again := build()
		if len(again.Phases) != len(first.Phases) {
			t.Fatalf("phase count varies")
		}
		for p := range first.Phases {
			for j := range first.Phases[p] {
				if first.Phases[p][j] != again.Phases[p][j] {
					t.Fatalf("plan order varies: %v vs %v", first.Phases, again.Phases)
				}
			}
		}
	}
}
