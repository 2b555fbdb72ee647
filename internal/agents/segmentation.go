package agents

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Segmentation detects which buyer segments the site addresses and how
// well each is served, then publishes the segment list to the shared
// facts for the downstream page-ranking and competitor agents.
type Segmentation struct {
	unit
}

func NewSegmentation(analyzer core.Analyzer, log *logging.Logger) *Segmentation {
	return &Segmentation{unit: newUnit(
		"segmentation", "Audience Segmentation", []string{"website"}, 1.0, analyzer, log,
	)}
}

var forSegment = regexp.MustCompile(`\bfor ([a-z][a-z-]+(?: [a-z-]+)?)\b`)

func (s *Segmentation) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	if len(view.Pages()) == 0 {
		return nil, core.ErrAgentExecution(s.name, "no pages to analyze")
	}

	segments := s.detectSegments(view)
	primary := ""
	if len(segments) > 0 {
		primary = segments[0].Name
	}

	ac.UpdateFacts(s.name, func(f *core.Facts) {
		f.Segments = segments
		f.PrimarySegment = primary
	})

	solutions := len(view.PagesByType(core.PageTypeSolutions))
	avgCoverage := 0.0
	for _, seg := range segments {
		avgCoverage += seg.CoverageScore
	}
	if len(segments) > 0 {
		avgCoverage /= float64(len(segments))
	}

	a := s.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Segment Definition", MaxPoints: 20,
			ActualPoints: band(float64(len(segments)), bandStep{3, 20}, bandStep{2, 15}, bandStep{1, 10}),
			Note:         s.definitionNote(segments),
		},
		{
			Name: "Segment Coverage", MaxPoints: 20,
			ActualPoints: band(avgCoverage, bandStep{70, 20}, bandStep{40, 13}, bandStep{10, 7}, bandStep{0.1, 3}),
			Note:         fmt.Sprintf("segments are backed by dedicated pages at %.0f%% average coverage", avgCoverage),
		},
		{
			Name: "Solutions Architecture", MaxPoints: 20,
			ActualPoints: band(float64(solutions), bandStep{3, 20}, bandStep{1, 12}),
			Note:         fmt.Sprintf("%d solutions pages in the crawl", solutions),
		},
	}

	a.Findings = fmt.Sprintf(
		"Segmentation review for %s. Detected %d addressed segments (%s), with %d dedicated solutions pages. "+
			"Average segment coverage is %.0f%%. The primary segment by page support is %q. "+
			"The criteria earned %d of %d points. Segments below 40%% coverage are named but not served "+
			"and will leak to competitors with dedicated landing paths.",
		view.Config().Website, len(segments), segmentNames(segments), solutions,
		avgCoverage, primary, a.ActualPoints(), a.MaxPoints())

	a.Recommendations = s.recommend(segments, solutions)
	s.enrich(ctx, a, auditPreamble(view.Config(), "audience segmentation"), s.prompt(view), fb)
	return s.finish(a), nil
}

// detectSegments mines "for <audience>" phrasing and solutions-page
// slugs for addressed segments, scoring coverage by how many pages
// speak to each one.
func (s *Segmentation) detectSegments(view core.ContextView) []core.Segment {
	mentions := make(map[string][]string)
	for url, p := range view.Pages() {
		text := pageText(p)
		for _, m := range forSegment.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if stopSegment(name) {
				continue
			}
			mentions[name] = append(mentions[name], url)
		}
		if p.PageType == core.PageTypeSolutions {
			slug := strings.Trim(url[strings.LastIndex(url, "/")+1:], "/")
			if slug != "" && !stopSegment(slug) {
				mentions[strings.ReplaceAll(slug, "-", " ")] = append(mentions[strings.ReplaceAll(slug, "-", " ")], url)
			}
		}
	}

	total := len(view.Pages())
	var segments []core.Segment
	for name, urls := range mentions {
		if len(urls) < 2 && len(mentions) > 3 {
			continue // single stray mention, not an addressed segment
		}
		segments = append(segments, core.Segment{
			Name:            name,
			CoverageScore:   min(pctOf(len(urls), total)*2, 100),
			PagesAddressing: dedupe(urls),
		})
	}
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].CoverageScore != segments[j].CoverageScore {
			return segments[i].CoverageScore > segments[j].CoverageScore
		}
		return segments[i].Name < segments[j].Name
	})
	if len(segments) > 5 {
		segments = segments[:5]
	}
	return segments
}

// stopSegment filters "for <x>" matches that are grammar, not audience.
func stopSegment(name string) bool {
	switch strings.Fields(name)[0] {
	case "free", "more", "the", "your", "you", "all", "every", "a", "an", "example", "instance", "now", "us", "me", "it", "this", "that", "sale", "good", "years", "months", "days", "pricing", "solutions":
		return true
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func segmentNames(segments []core.Segment) string {
	if len(segments) == 0 {
		return "none"
	}
	names := make([]string, len(segments))
	for i, s := range segments {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

func (s *Segmentation) definitionNote(segments []core.Segment) string {
	if len(segments) == 0 {
		return "no addressed segments detected; the site speaks to everyone and therefore no one"
	}
	return fmt.Sprintf("%d segments detected: %s", len(segments), segmentNames(segments))
}

func (s *Segmentation) recommend(segments []core.Segment, solutions int) []core.Recommendation {
	var recs []core.Recommendation
	if len(segments) == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "the site never names an audience segment",
			Action: "Define the top two buyer segments and add a \"for <segment>\" block to the homepage.",
			Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "segmentation",
		})
	}
	if solutions == 0 {
		recs = append(recs, core.Recommendation{
			Issue:  "no solutions pages exist for segment-specific journeys",
			Action: "Build one solutions page per primary segment with segment-specific proof and CTAs.",
			Impact: core.ImpactHigh, Effort: core.EffortHigh, Category: "segmentation",
		})
	}
	for _, seg := range segments {
		if seg.CoverageScore < 40 {
			recs = append(recs, core.Recommendation{
				Issue:  fmt.Sprintf("segment %q is named but barely served (%.0f%% coverage)", seg.Name, seg.CoverageScore),
				Action: fmt.Sprintf("Give %q a dedicated page with its own pain points and evidence.", seg.Name),
				Impact: core.ImpactMedium, Effort: core.EffortMedium, Category: "segmentation",
			})
			break
		}
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "segment priority is implicit rather than chosen",
			Action: "Rank segments by revenue contribution and rebalance page depth to match.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "segmentation",
		})
	}
	return recs
}

func (s *Segmentation) prompt(view core.ContextView) string {
	var b strings.Builder
	b.WriteString("Identify the buyer segments this site addresses and judge how well each is served:\n")
	b.WriteString(pagesSummary(view, 15))
	return b.String()
}
