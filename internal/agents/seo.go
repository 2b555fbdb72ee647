package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// SEO scores technical search fundamentals across the crawl: metadata
// coverage, heading discipline, load time, URL hygiene, internal link
// density, and structured data. Rendering-dependent criteria (mobile,
// image optimization) stay as manual-review placeholders.
type SEO struct {
	unit
}

func NewSEO(analyzer core.Analyzer, log *logging.Logger) *SEO {
	return &SEO{unit: newUnit(
		"seo", "SEO Foundations", []string{"website"}, 1.0, analyzer, log,
	)}
}

var uglyURL = regexp.MustCompile(`[?&=]|/\d{4,}`)

func (s *SEO) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	pages := view.Pages()
	if len(pages) == 0 {
		return nil, core.ErrAgentExecution(s.name, "no pages to analyze")
	}

	total := len(pages)
	withTitle, withDesc, goodH1, cleanURLs, withSchema := 0, 0, 0, 0, 0
	totalLinks, totalLoad := 0, 0.0
	for url, p := range pages {
		if p.Title != "" {
			withTitle++
		}
		if p.MetaDescription != "" {
			withDesc++
		}
		if len(p.H1) == 1 {
			goodH1++
		}
		if !uglyURL.MatchString(url) {
			cleanURLs++
		}
		if p.HasSchema {
			withSchema++
		}
		totalLinks += len(p.InternalLinks)
		totalLoad += p.LoadTime
	}
	avgLinks := float64(totalLinks) / float64(total)
	avgLoad := totalLoad / float64(total)
	descPct := pctOf(withDesc, total)
	schemaPct := pctOf(withSchema, total)

	a := s.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Meta Tags", MaxPoints: 15,
			ActualPoints: band(min(pctOf(withTitle, total), descPct), bandStep{90, 15}, bandStep{70, 11}, bandStep{50, 7}, bandStep{1, 4}),
			Note:         fmt.Sprintf("%d/%d pages have titles, %d/%d have meta descriptions", withTitle, total, withDesc, total),
		},
		{
			Name: "Heading Structure", MaxPoints: 10,
			ActualPoints: band(pctOf(goodH1, total), bandStep{90, 10}, bandStep{70, 7}, bandStep{50, 5}, bandStep{1, 2}),
			Note:         fmt.Sprintf("%d/%d pages carry exactly one H1", goodH1, total),
		},
		{
			Name: "Page Speed", MaxPoints: 20,
			ActualPoints: loadTimePoints(avgLoad),
			Note:         fmt.Sprintf("average load time %.2fs across %d pages", avgLoad, total),
		},
		{
			Name: "Mobile Responsiveness", MaxPoints: 15,
			ActualPoints: 8, Note: core.PlaceholderNote,
		},
		{
			Name: "Image Optimization", MaxPoints: 10,
			ActualPoints: 5, Note: core.PlaceholderNote,
		},
		{
			Name: "URL Structure", MaxPoints: 10,
			ActualPoints: band(pctOf(cleanURLs, total), bandStep{90, 10}, bandStep{70, 7}, bandStep{1, 4}),
			Note:         fmt.Sprintf("%d/%d URLs are clean (no query strings or numeric slugs)", cleanURLs, total),
		},
		{
			Name: "Internal Linking", MaxPoints: 10,
			ActualPoints: band(avgLinks, bandStep{10, 10}, bandStep{5, 7}, bandStep{1, 4}),
			Note:         fmt.Sprintf("average of %.1f internal links per page", avgLinks),
		},
		{
			Name: "Schema Markup", MaxPoints: 10,
			ActualPoints: band(schemaPct, bandStep{50, 10}, bandStep{25, 6}, bandStep{0.1, 3}),
			Note:         fmt.Sprintf("structured data present on %.0f%% of pages", schemaPct),
		},
	}

	a.Findings = fmt.Sprintf(
		"Technical SEO review of %d pages on %s. Metadata coverage sits at %.0f%% for descriptions and %.0f%% for titles. "+
			"Average load time is %.2fs and pages link internally %.1f times on average. "+
			"Structured data appears on %.0f%% of pages. Scored %d of %d points on the on-crawl criteria; "+
			"mobile rendering and image weight need a manual pass.",
		total, view.Config().Website, descPct, pctOf(withTitle, total),
		avgLoad, avgLinks, schemaPct, a.ActualPoints(), a.MaxPoints())

	a.Recommendations = s.recommend(descPct, avgLoad, schemaPct, avgLinks)
	s.enrich(ctx, a, auditPreamble(view.Config(), "technical SEO"), s.prompt(view), fb)
	return s.finish(a), nil
}

func loadTimePoints(avg float64) int {
	switch {
	case avg < 1.5:
		return 20
	case avg < 2.5:
		return 16
	case avg < 3.5:
		return 12
	case avg < 5.0:
		return 8
	default:
		return 4
	}
}

func (s *SEO) recommend(descPct, avgLoad, schemaPct, avgLinks float64) []core.Recommendation {
	var recs []core.Recommendation
	if descPct < 80 {
		recs = append(recs, core.Recommendation{
			Issue:  fmt.Sprintf("only %.0f%% of pages have meta descriptions", descPct),
			Action: "Write unique meta descriptions for every indexable page, leading with the primary keyword.",
			Impact: core.ImpactHigh, Effort: core.EffortLow, Category: "seo",
		})
	}
	if avgLoad > 3.0 {
		recs = append(recs, core.Recommendation{
			Issue:  fmt.Sprintf("average page load of %.1fs exceeds the 3s threshold", avgLoad),
			Action: "Profile the slowest templates and cut render-blocking assets; target sub-2.5s loads.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "seo",
		})
	}
	if schemaPct < 25 {
		recs = append(recs, core.Recommendation{
			Issue:  "structured data is nearly absent from the site",
			Action: "Add Organization and Product schema to the homepage and product pages.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "seo",
		})
	}
	if avgLinks < 5 {
		recs = append(recs, core.Recommendation{
			Issue:  fmt.Sprintf("thin internal linking (%.1f links per page)", avgLinks),
			Action: "Cross-link related product, solution, and blog pages to spread crawl equity.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "seo",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "no automated regression checks on SEO fundamentals",
			Action: "Add a CI crawl that fails on missing titles, duplicate H1s, or schema removal.",
			Impact: core.ImpactMedium, Effort: core.EffortMedium, Category: "seo",
		})
	}
	return recs
}

func (s *SEO) prompt(view core.ContextView) string {
	var b strings.Builder
	b.WriteString("Assess the technical SEO posture of these crawled pages:\n")
	b.WriteString(pagesSummary(view, 15))
	return b.String()
}
