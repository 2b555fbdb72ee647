// Package agents holds the closed set of audit units. Each agent reads
// a snapshot of the collected pages, scores its slice of the audit with
// deterministic heuristics, and optionally enriches the result through
// the configured analyzer. Without an analyzer every agent still
// produces a structurally complete analysis marked degraded.
package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// unit carries the identity and capabilities shared by every agent.
type unit struct {
	name     string
	title    string
	deps     []string
	weight   float64
	analyzer core.Analyzer
	log      *logging.Logger
}

func newUnit(name, title string, deps []string, weight float64, analyzer core.Analyzer, log *logging.Logger) unit {
	if log == nil {
		log = logging.NewNop()
	}
	return unit{
		name:     name,
		title:    title,
		deps:     deps,
		weight:   weight,
		analyzer: analyzer,
		log:      log.WithAgent(name),
	}
}

func (u *unit) Name() string  { return u.name }
func (u *unit) Title() string { return u.title }
func (u *unit) Weight() float64 {
	return u.weight
}

func (u *unit) Dependencies() []string {
	out := make([]string, len(u.deps))
	copy(out, u.deps)
	return out
}

// begin stamps a fresh analysis shell for this run.
func (u *unit) begin() *core.AgentAnalysis {
	return &core.AgentAnalysis{
		AgentName: u.name,
		Title:     u.title,
		Weight:    u.weight,
		StartedAt: time.Now(),
	}
}

func (u *unit) finish(a *core.AgentAnalysis) *core.AgentAnalysis {
	a.CompletedAt = time.Now()
	return a
}

// enrich runs the heuristic result through the analyzer when one is
// configured. The heuristic items remain the scoring backbone; the
// analyzer contributes prose, item notes, and extra recommendations.
// Without an analyzer (or on analyzer failure) the analysis is marked
// degraded and, on revision, findings are elaborated deterministically
// so the quality gates see a materially different draft.
func (u *unit) enrich(ctx context.Context, a *core.AgentAnalysis, system, prompt string, fb *core.Feedback) {
	if u.analyzer == nil || !u.analyzer.Available() {
		a.Degraded = true
		if fb != nil {
			u.elaborate(a)
		}
		return
	}

	res, err := u.analyzer.Analyze(ctx, core.AnalysisRequest{
		System: system,
		Prompt: foldFeedback(prompt, fb),
	})
	if err != nil {
		u.log.Warn("analyzer failed, keeping heuristic result", "error", err)
		a.Degraded = true
		if fb != nil {
			u.elaborate(a)
		}
		return
	}

	if len(res.Findings) > len(a.Findings) {
		a.Findings = res.Findings
	}
	byName := make(map[string]core.ScoreItem, len(res.Items))
	for _, it := range res.Items {
		byName[strings.ToLower(it.Name)] = it
	}
	for i := range a.Items {
		got, ok := byName[strings.ToLower(a.Items[i].Name)]
		if !ok {
			continue
		}
		if got.Note != "" && got.Note != core.PlaceholderNote {
			a.Items[i].Note = got.Note
		}
		if got.Recommendation != "" {
			a.Items[i].Recommendation = got.Recommendation
		}
	}
	seen := make(map[string]bool, len(a.Recommendations))
	for _, r := range a.Recommendations {
		seen[strings.ToLower(r.Issue)] = true
	}
	for _, r := range res.Recommendations {
		if !seen[strings.ToLower(r.Issue)] {
			a.Recommendations = append(a.Recommendations, r)
		}
	}
}

// elaborate expands the findings with a per-criterion breakdown. Used
// during degraded-mode revisions where no analyzer can add substance.
func (u *unit) elaborate(a *core.AgentAnalysis) {
	var b strings.Builder
	b.WriteString(a.Findings)
	b.WriteString("\n\nScore breakdown: ")
	for i, it := range a.Items {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s scored %d of %d", it.Name, it.ActualPoints, it.MaxPoints)
		if it.Note != "" && it.Note != core.PlaceholderNote {
			fmt.Fprintf(&b, " (%s)", it.Note)
		}
	}
	b.WriteString(".")
	a.Findings = b.String()
}

// foldFeedback prepends reviewer critique to a revision prompt.
func foldFeedback(prompt string, fb *core.Feedback) string {
	if fb == nil {
		return prompt
	}
	var b strings.Builder
	b.WriteString("The previous draft was rejected by review. Address every point:\n")
	for _, v := range fb.Violations {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	for _, s := range fb.Suggestions {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(prompt)
	return b.String()
}

// band awards the points of the first step whose threshold the value
// meets. Steps must be in descending threshold order.
func band(value float64, steps ...bandStep) int {
	for _, s := range steps {
		if value >= s.atLeast {
			return s.points
		}
	}
	return 0
}

type bandStep struct {
	atLeast float64
	points  int
}

// pctOf returns part/total as a 0-100 percentage, 0 when total is 0.
func pctOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// pageText concatenates the visible text signals of a page for pattern
// matching. RawText dominates; headings cover pages collected without it.
func pageText(p core.PageData) string {
	parts := []string{p.Title, p.MetaDescription}
	parts = append(parts, p.H1...)
	parts = append(parts, p.H2...)
	parts = append(parts, p.H3...)
	parts = append(parts, p.Paragraphs...)
	parts = append(parts, p.RawText)
	return strings.ToLower(strings.Join(parts, " "))
}

// siteText concatenates pageText across every collected page.
func siteText(view core.ContextView) string {
	var b strings.Builder
	for _, p := range view.Pages() {
		b.WriteString(pageText(p))
		b.WriteString(" ")
	}
	return b.String()
}

// matchPages returns how many pages the pattern matches.
func matchPages(view core.ContextView, re *regexp.Regexp) int {
	n := 0
	for _, p := range view.Pages() {
		if re.MatchString(pageText(p)) {
			n++
		}
	}
	return n
}

// wordCount counts whitespace-separated tokens in the page body.
func wordCount(p core.PageData) int {
	n := 0
	for _, para := range p.Paragraphs {
		n += len(strings.Fields(para))
	}
	if n == 0 {
		n = len(strings.Fields(p.RawText))
	}
	return n
}

// pagesSummary renders a compact textual digest of the collected pages
// for analyzer prompts.
func pagesSummary(view core.ContextView, maxPages int) string {
	var b strings.Builder
	n := 0
	for url, p := range view.Pages() {
		if n >= maxPages {
			fmt.Fprintf(&b, "... and %d more pages\n", len(view.Pages())-n)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s | title: %q | h1: %s | ctas: %d | forms: %d | words: %d\n",
			p.PageType, url, p.Title, strings.Join(p.H1, " / "), len(p.CTAs), len(p.Forms), wordCount(p))
		n++
	}
	return b.String()
}

// auditPreamble is the system-prompt frame shared by analyzer calls.
func auditPreamble(cfg core.AuditConfig, module string) string {
	return fmt.Sprintf(
		"You are a senior website auditor reviewing %s (%s) for the %s module. "+
			"Respond with JSON: findings (string), items (name, max_points, actual_points, note, recommendation), "+
			"recommendations (issue, action, impact, effort). Ground every note in the page data provided.",
		cfg.Subject, cfg.Website, module)
}
