package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// PromptVisibility estimates how well the site feeds AI assistants:
// whether an answer engine quoting this site could state what the
// company is, cite a concrete number, or answer a buyer question. It
// builds on the research brief, so it depends on deep_research.
type PromptVisibility struct {
	unit
}

func NewPromptVisibility(analyzer core.Analyzer, log *logging.Logger) *PromptVisibility {
	return &PromptVisibility{unit: newUnit(
		"prompt_visibility", "AI Search Visibility", []string{"deep_research"}, 1.5, analyzer, log,
	)}
}

var (
	citableFact  = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d+)?\s?(%|percent|customers|users|countries|hours|minutes|x\b)`)
	questionHead = regexp.MustCompile(`^(what|how|why|when|who|which|can|does|is|are)\b`)
)

func (p *PromptVisibility) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages, core.DomainFacts)
	if len(view.Pages()) == 0 {
		return nil, core.ErrAgentExecution(p.name, "no pages to analyze")
	}

	orgSchema, factPages, questionHeadings := 0, 0, 0
	for _, page := range view.Pages() {
		for _, t := range page.SchemaTypes {
			if strings.EqualFold(t, "Organization") || strings.EqualFold(t, "Product") || strings.EqualFold(t, "FAQPage") {
				orgSchema++
				break
			}
		}
		if citableFact.MatchString(pageText(page)) {
			factPages++
		}
		for _, h := range append(append([]string{}, page.H2...), page.H3...) {
			if questionHead.MatchString(strings.ToLower(h)) {
				questionHeadings++
			}
		}
	}

	brief := view.Facts().ResearchBrief
	entity := band(float64(orgSchema), bandStep{3, 20}, bandStep{1, 12})
	if brief != "" && entity < 20 {
		entity += 3 // brief gives assistants a fallback self-description
	}

	a := p.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Entity Clarity", MaxPoints: 20, ActualPoints: entity,
			Note: fmt.Sprintf("%d pages declare Organization/Product/FAQ schema", orgSchema),
		},
		{
			Name: "Citable Facts", MaxPoints: 20,
			ActualPoints: band(pctOf(factPages, len(view.Pages())), bandStep{50, 20}, bandStep{25, 13}, bandStep{1, 7}),
			Note:         fmt.Sprintf("%d/%d pages carry a quantified, quotable claim", factPages, len(view.Pages())),
		},
		{
			Name: "Question Coverage", MaxPoints: 20,
			ActualPoints: band(float64(questionHeadings), bandStep{8, 20}, bandStep{4, 14}, bandStep{1, 7}),
			Note:         fmt.Sprintf("%d headings are phrased as buyer questions", questionHeadings),
		},
		{
			Name: "Answer Readiness", MaxPoints: 15,
			ActualPoints: p.answerReadiness(view),
			Note:         p.answerNote(view),
		},
	}

	a.Findings = fmt.Sprintf(
		"AI-search visibility review for %s. %d pages declare machine-readable entity schema, "+
			"%d of %d pages carry citable quantified claims, and %d headings match the question forms "+
			"assistants answer. An answer engine summarizing this site today would earn it %d of %d points. "+
			"Sites that state plain facts with schema get quoted; sites that only emote get paraphrased out.",
		view.Config().Website, orgSchema, factPages, len(view.Pages()), questionHeadings,
		a.ActualPoints(), a.MaxPoints())

	a.Recommendations = p.recommend(orgSchema, factPages, questionHeadings)
	p.enrich(ctx, a, auditPreamble(view.Config(), "AI search visibility"), p.prompt(view, brief), fb)
	return p.finish(a), nil
}

// answerReadiness checks that the homepage states what the company does
// in its first screenful of copy.
func (p *PromptVisibility) answerReadiness(view core.ContextView) int {
	home, ok := view.Homepage()
	if !ok {
		return 0
	}
	score := 0
	if home.MetaDescription != "" {
		score += 7
	}
	if len(home.H1) > 0 && len(strings.Fields(home.H1[0])) >= 4 {
		score += 5
	}
	if len(home.Paragraphs) > 0 && len(home.Paragraphs[0]) > 80 {
		score += 3
	}
	return score
}

func (p *PromptVisibility) answerNote(view core.ContextView) string {
	home, ok := view.Homepage()
	if !ok {
		return "no homepage to judge"
	}
	if home.MetaDescription == "" {
		return "homepage lacks a meta description for assistants to quote"
	}
	return "homepage states what the company does in quotable form"
}

func (p *PromptVisibility) recommend(orgSchema, factPages, questionHeadings int) []core.Recommendation {
	var recs []core.Recommendation
	if orgSchema == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no entity schema for assistants to resolve the company against",
			Action: "Add Organization schema with name, description, and sameAs social links to every page.",
			Impact: core.ImpactHigh, Effort: core.EffortLow, Category: "ai-search",
		})
	}
	if factPages < 3 {
		recs = append(recs, core.Recommendation{
			Issue:  "almost no quantified claims for an answer engine to cite",
			Action: "Publish concrete numbers (customers, outcomes, benchmarks) in crawlable body text.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "ai-search",
		})
	}
	if questionHeadings < 4 {
		recs = append(recs, core.Recommendation{
			Issue:  "the site does not answer questions in the form buyers ask them",
			Action: "Add an FAQ section with question-phrased headings mirroring real sales questions.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "ai-search",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "AI-search visibility is untracked",
			Action: "Run a monthly probe of the top ten buyer prompts and record whether the brand appears.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "ai-search",
		})
	}
	return recs
}

func (p *PromptVisibility) prompt(view core.ContextView, brief string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Judge how visible %s would be to AI assistants answering buyer questions.\n", view.Config().Subject)
	if brief != "" {
		b.WriteString("Research brief:\n")
		b.WriteString(brief)
		b.WriteString("\n\n")
	}
	b.WriteString("Pages:\n")
	b.WriteString(pagesSummary(view, 12))
	return b.String()
}
