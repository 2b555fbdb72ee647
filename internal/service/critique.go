package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/events"
	"github.com/sitescope/sitescope/internal/logging"
)

// Gates are the structural quality thresholds every analysis must clear
// before it is accepted into the report.
type Gates struct {
	MinFindingsLength  int
	MinScoreItems      int
	MinRecommendations int
	MaxEmptyNotes      int
}

// DefaultGates returns the standard thresholds.
func DefaultGates() Gates {
	return Gates{
		MinFindingsLength:  100,
		MinScoreItems:      3,
		MinRecommendations: 2,
		MaxEmptyNotes:      2,
	}
}

// Critic drives the evaluate-revise loop around a single agent run.
// The ceiling bounds revision re-invocations per agent; when it is
// spent the last produced analysis is accepted as-is and flagged.
type Critic struct {
	gates   Gates
	ceiling int
	timeout time.Duration
	bus     *events.EventBus
	log     *logging.Logger
}

// NewCritic creates a critique controller. The timeout bounds each
// agent invocation separately, so a slow first draft cannot consume the
// budget of its own revisions. A zero timeout disables the bound; a nil
// bus disables event publication.
func NewCritic(gates Gates, ceiling int, timeout time.Duration, bus *events.EventBus, log *logging.Logger) *Critic {
	if ceiling < 1 {
		ceiling = 3
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Critic{
		gates:   gates,
		ceiling: ceiling,
		timeout: timeout,
		bus:     bus,
		log:     log,
	}
}

// Evaluate returns the gate violations of an analysis, empty when it
// passes. Data producers with zero score items and no findings text are
// exempt from content gates; they carry facts, not scores.
func (c *Critic) Evaluate(a *core.AgentAnalysis) []string {
	if a.Weight == 0 && len(a.Items) == 0 {
		return nil
	}

	var violations []string

	if len(a.Findings) < c.gates.MinFindingsLength {
		violations = append(violations, fmt.Sprintf(
			"findings too short: %d chars, need %d", len(a.Findings), c.gates.MinFindingsLength))
	}
	if len(a.Items) < c.gates.MinScoreItems {
		violations = append(violations, fmt.Sprintf(
			"too few score items: %d, need %d", len(a.Items), c.gates.MinScoreItems))
	}
	// An absent analyzer cannot invent recommendations, so the gate only
	// applies to full-capability runs.
	if !a.Degraded && len(a.Recommendations) < c.gates.MinRecommendations {
		violations = append(violations, fmt.Sprintf(
			"too few recommendations: %d, need %d", len(a.Recommendations), c.gates.MinRecommendations))
	}
	if n := a.EmptyNoteCount(); n > c.gates.MaxEmptyNotes {
		violations = append(violations, fmt.Sprintf(
			"too many empty notes: %d, max %d", n, c.gates.MaxEmptyNotes))
	}

	return violations
}

// Run executes an agent and loops it through critique until the gates
// pass or the revision ceiling is spent. A failed revision keeps the
// last good analysis rather than discarding the agent's work.
func (c *Critic) Run(ctx context.Context, runID string, agent core.Agent, ac core.AuditContext) (*core.AgentAnalysis, error) {
	log := c.log.WithRun(runID).WithAgent(agent.Name())

	analysis, err := c.execute(ctx, agent, ac, nil)
	if err != nil {
		return nil, err
	}

	for {
		violations := c.Evaluate(analysis)
		if len(violations) == 0 {
			analysis.QualityPass = true
			if analysis.RevisionCount > 0 {
				c.publish(events.NewRevisionAccepted(runID, agent.Name(), analysis.RevisionCount))
			}
			return analysis, nil
		}

		// The ceiling counts revision re-invocations: ceiling 3 allows
		// three revised drafts after the initial one.
		if analysis.RevisionCount >= c.ceiling {
			log.Warn("revision ceiling reached, accepting analysis as-is",
				"cycles", analysis.RevisionCount, "violations", violations)
			analysis.QualityPass = false
			c.publish(events.NewCeilingReached(runID, agent.Name(), analysis.RevisionCount))
			return analysis, nil
		}

		cycle := analysis.RevisionCount + 1
		log.Info("quality gates rejected analysis, requesting revision",
			"cycle", cycle, "violations", violations)
		c.publish(events.NewRevisionRequested(runID, agent.Name(), cycle, violations))

		fb := &core.Feedback{
			Reason:      "analysis rejected by quality gates",
			Violations:  violations,
			Suggestions: suggestionsFor(violations),
		}
		revised, err := c.execute(ctx, agent, ac, fb)
		if err != nil {
			// The previous analysis is still the best available result.
			log.Warn("revision failed, keeping prior analysis", "error", err)
			analysis.QualityPass = false
			return analysis, nil
		}
		revised.RevisionCount = cycle
		analysis = revised
	}
}

// execute runs one agent invocation under its own timeout window. A
// deadline hit on the invocation, with the parent context still live,
// surfaces as an agent timeout error.
func (c *Critic) execute(ctx context.Context, agent core.Agent, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	ectx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	analysis, err := agent.Execute(ectx, ac, fb)
	if err != nil && ectx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, core.ErrAgentTimeout(agent.Name()).WithCause(err)
	}
	return analysis, err
}

func (c *Critic) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func suggestionsFor(violations []string) []string {
	suggestions := make([]string, 0, len(violations))
	for _, v := range violations {
		switch {
		case strings.Contains(v, "findings too short"):
			suggestions = append(suggestions, "expand findings with concrete observations from the collected pages")
		case strings.Contains(v, "too few score items"):
			suggestions = append(suggestions, "score every criterion in the module, not only the notable ones")
		case strings.Contains(v, "too few recommendations"):
			suggestions = append(suggestions, "derive at least one recommendation from each low-scoring item")
		case strings.Contains(v, "too many empty notes"):
			suggestions = append(suggestions, "replace placeholder notes with page-specific evidence")
		}
	}
	return suggestions
}
