package core

import (
	"context"
	"time"
)

// Agent is the single execution contract every analysis unit implements.
// The set of agents is closed and registered at plan-construction time.
type Agent interface {
	// Name returns the unique agent identifier used in dependency
	// declarations and as the analyses key.
	Name() string

	// Title returns the human-readable module title for the report.
	Title() string

	// Dependencies returns the names of agents whose results must exist
	// in the context store before this agent runs.
	Dependencies() []string

	// Weight is a non-negative multiplier applied only at final-score
	// aggregation. Weight 0 marks a pure data-producer or meta-agent
	// that must run but contributes nothing to the aggregate.
	Weight() float64

	// Execute consumes readable context and produces a structured
	// analysis. Re-running with the same context and nil feedback must
	// be safe. May block on external capabilities for arbitrarily long;
	// callers bound it with the context deadline.
	Execute(ctx context.Context, ac AuditContext, fb *Feedback) (*AgentAnalysis, error)
}

// Feedback carries critique findings into a revision re-run. It is
// consumed once and discarded.
type Feedback struct {
	Reason      string   `json:"reason"`
	Violations  []string `json:"violations"`
	Suggestions []string `json:"suggestions"`
}

// ExecutionPlan is an ordered sequence of phases. Each phase is a set of
// agent names with no dependency edges among them and all dependencies
// satisfied by strictly earlier phases. Computed once per run, never
// mutated during execution.
type ExecutionPlan struct {
	Phases [][]string
}

// AgentCount returns the number of agents across all phases.
func (p *ExecutionPlan) AgentCount() int {
	n := 0
	for _, phase := range p.Phases {
		n += len(phase)
	}
	return n
}

// PhaseOf returns the index of the phase containing the named agent,
// or -1 when the agent is not in the plan.
func (p *ExecutionPlan) PhaseOf(name string) int {
	for i, phase := range p.Phases {
		for _, a := range phase {
			if a == name {
				return i
			}
		}
	}
	return -1
}

// CollectScope bounds a data-collection pass.
type CollectScope struct {
	RootURL  string
	MaxPages int
}

// Collector is the page-crawling capability that produces the initial
// context-store population. A collection failure is fatal to the run.
type Collector interface {
	Collect(ctx context.Context, scope CollectScope) (map[string]PageData, error)
}

// AnalysisRequest is prompt-shaped input derived from context.
type AnalysisRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// AnalysisResult is the structured output of the analysis capability.
type AnalysisResult struct {
	Findings        string
	Items           []ScoreItem
	Recommendations []Recommendation
}

// Analyzer is the opaque content-analysis capability agents invoke. It
// may be entirely absent (degraded mode); agents must still produce a
// structurally valid analysis so downstream gates behave deterministically.
type Analyzer interface {
	// Available reports whether the capability is configured.
	Available() bool

	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// Capturer is the screenshot capability. Failure is non-fatal and
// recorded as a missing screenshot.
type Capturer interface {
	Capture(ctx context.Context, url, selector string) (ScreenshotRef, error)
}

// Renderer consumes the frozen analysis set and derived facts to produce
// the end artifact. Returns the artifact path.
type Renderer interface {
	Render(ctx context.Context, report *Report, view ContextView) (string, error)
}

// RunStatus tracks the lifecycle of a persisted run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persisted outcome of one audit run.
type RunRecord struct {
	ID           string         `json:"id"`
	Subject      string         `json:"subject"`
	Website      string         `json:"website"`
	Status       RunStatus      `json:"status"`
	Error        string         `json:"error,omitempty"`
	Report       *Report        `json:"report,omitempty"`
	ChangeLog    []ChangeRecord `json:"change_log,omitempty"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// RunSummary is a lightweight listing row for persisted runs.
type RunSummary struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	Website     string     `json:"website"`
	Status      RunStatus  `json:"status"`
	Overall     float64    `json:"overall_pct"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunStore persists run records for diagnostics and the status surface.
type RunStore interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	LoadRun(ctx context.Context, id string) (*RunRecord, error)
	LatestRun(ctx context.Context) (*RunRecord, error)
	ListRuns(ctx context.Context) ([]RunSummary, error)
	Close() error
}
