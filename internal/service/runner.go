package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/events"
	"github.com/sitescope/sitescope/internal/logging"
	"github.com/sitescope/sitescope/internal/store"
)

// Options tune a single engine run.
type Options struct {
	AgentTimeout time.Duration
	CycleCeiling int
	Gates        Gates
	Screenshots  bool
}

// DefaultOptions returns the standard engine tuning.
func DefaultOptions() Options {
	return Options{
		AgentTimeout: 5 * time.Minute,
		CycleCeiling: 3,
		Gates:        DefaultGates(),
		Screenshots:  true,
	}
}

// Engine runs a full audit: collect, capture, phased agent execution
// with critique, aggregation, rendering, and persistence.
type Engine struct {
	opts      Options
	registry  *Registry
	collector core.Collector
	capturer  core.Capturer
	renderer  core.Renderer
	runStore  core.RunStore
	bus       *events.EventBus
	log       *logging.Logger
}

// EngineDeps wires the engine's capabilities. Capturer, Renderer,
// RunStore, and Bus are optional; the corresponding step is skipped when
// nil.
type EngineDeps struct {
	Registry  *Registry
	Collector core.Collector
	Capturer  core.Capturer
	Renderer  core.Renderer
	RunStore  core.RunStore
	Bus       *events.EventBus
	Logger    *logging.Logger
}

// NewEngine creates an audit engine.
func NewEngine(opts Options, deps EngineDeps) *Engine {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 5 * time.Minute
	}
	if opts.CycleCeiling < 1 {
		opts.CycleCeiling = 3
	}
	return &Engine{
		opts:      opts,
		registry:  deps.Registry,
		collector: deps.Collector,
		capturer:  deps.Capturer,
		renderer:  deps.Renderer,
		runStore:  deps.RunStore,
		bus:       deps.Bus,
		log:       deps.Logger,
	}
}

// RunResult bundles what a completed run produced.
type RunResult struct {
	RunID        string
	Report       *core.Report
	ArtifactPath string
}

// Run executes one audit end to end. Fatal errors abort the run with no
// partial artifact; per-agent failures and skips degrade the report
// instead.
func (e *Engine) Run(ctx context.Context, audit core.AuditConfig) (*RunResult, error) {
	runID := uuid.New().String()
	log := e.log.WithRun(runID)
	startedAt := time.Now()

	plan, err := BuildPlan(e.registry)
	if err != nil {
		return nil, err
	}
	log.Info("execution plan built",
		"agents", plan.AgentCount(), "phases", len(plan.Phases))

	ac := store.New(audit)
	e.publish(events.NewRunStarted(runID, audit.Subject, audit.Website))
	e.saveRun(ctx, &core.RunRecord{
		ID:        runID,
		Subject:   audit.Subject,
		Website:   audit.Website,
		Status:    core.RunStatusRunning,
		StartedAt: startedAt,
	})

	report, artifact, err := e.run(ctx, runID, plan, ac, audit)
	if err != nil {
		log.Error("run failed", "error", err)
		e.publishPriority(events.NewRunFailed(runID, err.Error()))
		now := time.Now()
		e.saveRun(ctx, &core.RunRecord{
			ID:          runID,
			Subject:     audit.Subject,
			Website:     audit.Website,
			Status:      core.RunStatusFailed,
			Error:       err.Error(),
			ChangeLog:   ac.ChangeLog(),
			StartedAt:   startedAt,
			CompletedAt: &now,
		})
		return nil, err
	}

	now := time.Now()
	e.saveRun(ctx, &core.RunRecord{
		ID:           runID,
		Subject:      audit.Subject,
		Website:      audit.Website,
		Status:       core.RunStatusCompleted,
		Report:       report,
		ChangeLog:    ac.ChangeLog(),
		ArtifactPath: artifact,
		StartedAt:    startedAt,
		CompletedAt:  &now,
	})
	e.publishPriority(events.NewRunCompleted(runID, report.OverallPercentage(), string(report.OverallOutcome())))
	log.Info("run completed",
		"overall_pct", report.OverallPercentage(),
		"outcome", report.OverallOutcome(),
		"duration", now.Sub(startedAt).Round(time.Second))

	return &RunResult{RunID: runID, Report: report, ArtifactPath: artifact}, nil
}

func (e *Engine) run(ctx context.Context, runID string, plan *core.ExecutionPlan, ac core.AuditContext, audit core.AuditConfig) (*core.Report, string, error) {
	log := e.log.WithRun(runID)

	if err := e.collect(ctx, runID, ac, audit); err != nil {
		return nil, "", err
	}
	e.captureScreenshots(ctx, runID, ac)

	critic := NewCritic(e.opts.Gates, e.opts.CycleCeiling, e.opts.AgentTimeout, e.bus, e.log)

	var mu sync.Mutex
	caveats := make([]core.Caveat, 0)

	for phaseIdx, phase := range plan.Phases {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		plog := log.WithPhase(phaseIdx)
		plog.Info("phase started", "agents", phase)
		e.publish(events.NewPhaseStarted(runID, phaseIdx, phase))

		var succeeded, failed, skipped int
		g, gctx := errgroup.WithContext(ctx)

		for _, name := range phase {
			name := name
			agent, _ := e.registry.Get(name)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				// Dependency results are frozen by the phase barrier, so
				// the check needs no lock on the results map.
				var missing []string
				for _, dep := range agent.Dependencies() {
					if _, ok := ac.Analysis(dep); !ok {
						missing = append(missing, dep)
					}
				}
				if len(missing) > 0 {
					skipErr := core.ErrDependencyUnsatisfied(name, missing)
					plog.WithAgent(name).Warn("agent skipped", "missing", missing)
					e.publish(events.NewAgentSkipped(runID, name, missing))
					mu.Lock()
					skipped++
					caveats = append(caveats, core.Caveat{
						AgentName: name, Kind: "skipped", Detail: skipErr.Message,
					})
					mu.Unlock()
					return nil
				}

				e.publish(events.NewAgentStarted(runID, name, phaseIdx))

				// The critic bounds each invocation with the agent
				// timeout, so revisions get fresh windows.
				analysis, err := critic.Run(gctx, runID, agent, ac)
				if err != nil {
					if core.IsFatal(err) || gctx.Err() != nil {
						return err
					}
					plog.WithAgent(name).Error("agent failed", "error", err)
					e.publish(events.NewAgentFailed(runID, name, err.Error()))
					mu.Lock()
					failed++
					caveats = append(caveats, core.Caveat{
						AgentName: name, Kind: "failed", Detail: err.Error(),
					})
					mu.Unlock()
					return nil
				}

				ac.PutAnalysis(name, analysis)
				e.publish(events.NewAgentCompleted(runID, name,
					analysis.Percentage(), analysis.RevisionCount, analysis.Degraded))
				mu.Lock()
				succeeded++
				if analysis.Degraded {
					caveats = append(caveats, core.Caveat{
						AgentName: name, Kind: "degraded",
						Detail: "analysis capability unavailable, heuristic result",
					})
				}
				if !analysis.QualityPass {
					caveats = append(caveats, core.Caveat{
						AgentName: name, Kind: "gate_failed",
						Detail: "accepted after revision ceiling",
					})
				}
				mu.Unlock()
				return nil
			})
		}

		// Phase barrier: no agent of a later phase starts before every
		// agent of this phase finished or was skipped.
		if err := g.Wait(); err != nil {
			return nil, "", err
		}

		plog.Info("phase completed",
			"succeeded", succeeded, "failed", failed, "skipped", skipped)
		e.publish(events.NewPhaseCompleted(runID, phaseIdx, succeeded, failed, skipped))
	}

	report := e.buildReport(runID, audit, ac, caveats)

	artifact := ""
	if e.renderer != nil {
		path, err := e.renderer.Render(ctx, report, ac.Snapshot())
		if err != nil {
			// Rendering failure loses the artifact, not the run.
			log.Error("render failed", "error", err)
			caveats = append(caveats, core.Caveat{
				AgentName: "renderer", Kind: "failed", Detail: err.Error(),
			})
			report.Caveats = caveats
		} else {
			artifact = path
		}
	}

	return report, artifact, nil
}

func (e *Engine) collect(ctx context.Context, runID string, ac core.AuditContext, audit core.AuditConfig) error {
	log := e.log.WithRun(runID)

	e.publish(events.NewCollectStarted(runID, audit.Website, audit.MaxPages))
	pages, err := e.collector.Collect(ctx, core.CollectScope{
		RootURL:  audit.Website,
		MaxPages: audit.MaxPages,
	})
	if err != nil {
		return core.ErrCollect("website crawl failed").WithCause(err)
	}
	if len(pages) == 0 {
		return core.ErrCollect("website crawl returned no pages")
	}

	for _, page := range pages {
		if err := ac.PutPage("collector", page); err != nil {
			return err
		}
	}

	log.Info("collection completed", "pages", len(pages))
	e.publish(events.NewCollectCompleted(runID, len(pages)))
	return nil
}

// captureScreenshots takes a full-page shot of the homepage and of each
// high-value page type. Failures are recorded, never fatal.
func (e *Engine) captureScreenshots(ctx context.Context, runID string, ac core.AuditContext) {
	if e.capturer == nil || !e.opts.Screenshots {
		return
	}
	log := e.log.WithRun(runID)

	targets := make(map[string]bool)
	if home, ok := ac.Homepage(); ok {
		targets[home.URL] = true
	}
	for _, t := range []core.PageType{core.PageTypePricing, core.PageTypeProduct, core.PageTypeContact} {
		for _, p := range ac.PagesByType(t) {
			targets[p.URL] = true
		}
	}

	for url := range targets {
		ref, err := e.capturer.Capture(ctx, url, "")
		if err != nil {
			log.Warn("screenshot failed", "url", url, "error", err)
			ref = core.ScreenshotRef{
				URL:  url,
				Kind: core.ScreenshotFullPage,
				Note: err.Error(),
			}
		}
		if err := ac.PutScreenshot("capturer", ref); err != nil {
			log.Warn("screenshot record conflict", "url", url, "error", err)
		}
	}
}

func (e *Engine) buildReport(runID string, audit core.AuditConfig, ac core.AuditContext, caveats []core.Caveat) *core.Report {
	view := ac.Snapshot()
	facts := view.Facts()

	var modules []*core.AgentAnalysis
	totalCycles := 0
	for _, name := range e.registry.Names() {
		if a, ok := view.Analysis(name); ok {
			modules = append(modules, a)
			totalCycles += a.RevisionCount
		}
	}

	captured := 0
	for _, ref := range view.Screenshots() {
		if ref.Captured() {
			captured++
		}
	}

	return &core.Report{
		RunID:       runID,
		Subject:     audit.Subject,
		Website:     audit.Website,
		Industry:    audit.Industry,
		AuditDate:   audit.AuditDate,
		Analyst:     audit.Analyst,
		Modules:     modules,
		Caveats:     caveats,
		Segments:    facts.Segments,
		Critical:    facts.CriticalPages,
		PagesSeen:   len(view.Pages()),
		Screenshots: captured,
		Cycles:      totalCycles,
	}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) publishPriority(ev events.Event) {
	if e.bus != nil {
		e.bus.PublishPriority(ev)
	}
}

func (e *Engine) saveRun(ctx context.Context, rec *core.RunRecord) {
	if e.runStore == nil {
		return
	}
	if err := e.runStore.SaveRun(ctx, rec); err != nil {
		e.log.WithRun(rec.ID).Error("persisting run failed", "error", err)
	}
}
