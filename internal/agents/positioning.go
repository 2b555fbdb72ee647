package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Positioning grades how clearly the site says what the company does,
// for whom, and why it wins. It carries the highest weight in the
// audit: a confused value proposition drags everything downstream.
type Positioning struct {
	unit
}

func NewPositioning(analyzer core.Analyzer, log *logging.Logger) *Positioning {
	return &Positioning{unit: newUnit(
		"positioning", "Positioning & Messaging", []string{"website"}, 2.0, analyzer, log,
	)}
}

var (
	jargonWords        = regexp.MustCompile(`\b(synerg|leverage|cutting.edge|best.in.class|world.class|next.gen|revolutionar|seamless|holistic|paradigm)`)
	differentiators    = regexp.MustCompile(`\b(only|unlike|first|fastest|unique|no other|instead of|compared to)\b`)
	audienceMarkers    = regexp.MustCompile(`\bfor (?:[a-z-]+ )?(developers|engineers|marketers|founders|teams|enterprises|startups|agencies|smbs|retailers|healthcare|finance)\b`)
	outcomeVerbMarkers = regexp.MustCompile(`\b(reduce|increase|save|cut|grow|automate|eliminate|accelerate|ship|close)\b`)
)

func (p *Positioning) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	home, ok := view.Homepage()
	if !ok {
		return nil, core.ErrAgentExecution(p.name, "homepage missing from crawl")
	}

	headline := ""
	if len(home.H1) > 0 {
		headline = home.H1[0]
	}
	lowerHead := strings.ToLower(headline)
	homeBody := pageText(home)
	site := siteText(view)

	clarity := p.headlineClarity(headline, lowerHead)
	diff := band(float64(len(differentiators.FindAllString(site, -1))), bandStep{5, 25}, bandStep{3, 19}, bandStep{1, 12})
	audience := 0
	if audienceMarkers.MatchString(homeBody) {
		audience = 20
	} else if audienceMarkers.MatchString(site) {
		audience = 12
	} else if len(view.PagesByType(core.PageTypeSolutions)) > 0 {
		audience = 10
	}
	consistency := p.messageConsistency(view, lowerHead)
	jargonHits := len(jargonWords.FindAllString(homeBody, -1))
	jargon := band(float64(3-jargonHits), bandStep{3, 15}, bandStep{1, 9}, bandStep{0, 4})

	a := p.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Value Proposition Clarity", MaxPoints: 25, ActualPoints: clarity,
			Note: fmt.Sprintf("homepage headline: %q", headline), PageURL: home.URL,
		},
		{
			Name: "Differentiation", MaxPoints: 25, ActualPoints: diff,
			Note: fmt.Sprintf("%d explicit differentiation claims found site-wide", len(differentiators.FindAllString(site, -1))),
		},
		{
			Name: "Target Audience Clarity", MaxPoints: 20, ActualPoints: audience,
			Note: p.audienceNote(homeBody, site, view),
		},
		{
			Name: "Message Consistency", MaxPoints: 15, ActualPoints: consistency,
			Note: "headline vocabulary echoed across interior pages",
		},
		{
			Name: "Plain Language", MaxPoints: 15, ActualPoints: jargon,
			Note: fmt.Sprintf("%d jargon phrases on the homepage", jargonHits),
		},
	}

	a.Findings = fmt.Sprintf(
		"Positioning review anchored on the homepage of %s. The headline %q scores %d of 25 for clarity. "+
			"Differentiation language appears %d times across the crawl and audience targeting earned %d of 20. "+
			"Interior pages echo the core message at %d of 15, and the homepage carries %d jargon phrases. "+
			"Overall the positioning criteria earned %d of %d points.",
		view.Config().Website, headline, clarity,
		len(differentiators.FindAllString(site, -1)), audience,
		consistency, jargonHits, a.ActualPoints(), a.MaxPoints())

	a.Recommendations = p.recommend(clarity, diff, audience, home)
	p.enrich(ctx, a, auditPreamble(view.Config(), "positioning and messaging"), p.prompt(view, home), fb)
	return p.finish(a), nil
}

// headlineClarity rewards a headline that is present, concise, and
// states an outcome rather than a slogan.
func (p *Positioning) headlineClarity(headline, lower string) int {
	if headline == "" {
		return 0
	}
	words := len(strings.Fields(headline))
	score := 10
	if words >= 4 && words <= 14 {
		score += 7
	} else if words < 4 {
		score += 2
	}
	if outcomeVerbMarkers.MatchString(lower) {
		score += 8
	}
	if score > 25 {
		score = 25
	}
	return score
}

func (p *Positioning) messageConsistency(view core.ContextView, lowerHead string) int {
	terms := strings.Fields(lowerHead)
	var key []string
	for _, t := range terms {
		if len(t) > 4 {
			key = append(key, t)
		}
	}
	if len(key) == 0 {
		return 4
	}
	echoed := 0
	for _, page := range view.Pages() {
		if page.PageType == core.PageTypeHome {
			continue
		}
		text := pageText(page)
		for _, k := range key {
			if strings.Contains(text, k) {
				echoed++
				break
			}
		}
	}
	interior := len(view.Pages()) - 1
	return band(pctOf(echoed, interior), bandStep{70, 15}, bandStep{40, 10}, bandStep{10, 6}, bandStep{0, 3})
}

func (p *Positioning) audienceNote(homeBody, site string, view core.ContextView) string {
	if m := audienceMarkers.FindString(homeBody); m != "" {
		return fmt.Sprintf("homepage names its audience: %q", m)
	}
	if m := audienceMarkers.FindString(site); m != "" {
		return fmt.Sprintf("audience named on interior pages only: %q", m)
	}
	if n := len(view.PagesByType(core.PageTypeSolutions)); n > 0 {
		return fmt.Sprintf("%d solutions pages imply segmentation but no page names a buyer", n)
	}
	return "no page states who the product is for"
}

func (p *Positioning) recommend(clarity, diff, audience int, home core.PageData) []core.Recommendation {
	var recs []core.Recommendation
	if clarity < 18 {
		recs = append(recs, core.Recommendation{
			Issue:   "the homepage headline does not state a concrete outcome",
			Action:  "Rewrite the H1 as outcome-for-audience (\"Cut onboarding time in half for fintech ops teams\").",
			Impact:  core.ImpactHigh, Effort: core.EffortLow, Category: "positioning", PageURL: home.URL,
		})
	}
	if diff < 15 {
		recs = append(recs, core.Recommendation{
			Issue:  "the site never says why to choose this product over alternatives",
			Action: "Add a differentiation section naming the alternative and the trade-off it loses on.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "positioning",
		})
	}
	if audience < 12 {
		recs = append(recs, core.Recommendation{
			Issue:  "no page names the target buyer",
			Action: "Name the primary audience in the homepage subhead and build solutions pages per segment.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "positioning",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "positioning claims are unverified against buyer language",
			Action: "Run message testing with five recent customers and fold their words into the headline.",
			Impact: core.ImpactMedium, Effort: core.EffortMedium, Category: "positioning",
		})
	}
	return recs
}

func (p *Positioning) prompt(view core.ContextView, home core.PageData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate positioning for %s. Homepage headline: %q. Meta description: %q.\n",
		view.Config().Subject, strings.Join(home.H1, " / "), home.MetaDescription)
	b.WriteString("Crawled pages:\n")
	b.WriteString(pagesSummary(view, 12))
	return b.String()
}
