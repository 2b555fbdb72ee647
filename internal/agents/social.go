package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Social grades the site's social presence as visible from the crawl:
// which platforms are linked, whether LinkedIn (the B2B default) is
// among them, and whether social proof reaches the homepage.
type Social struct {
	unit
}

func NewSocial(analyzer core.Analyzer, log *logging.Logger) *Social {
	return &Social{unit: newUnit(
		"social", "Social Presence", []string{"website"}, 1.0, analyzer, log,
	)}
}

func (s *Social) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages, core.DomainFacts)
	if len(view.Pages()) == 0 {
		return nil, core.ErrAgentExecution(s.name, "no pages to analyze")
	}

	links := view.Facts().SocialLinks
	platforms := make([]string, 0, len(links))
	for p := range links {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	_, hasLinkedIn := links["linkedin"]
	homeLinked := false
	if home, ok := view.Homepage(); ok {
		homeLinked = len(home.SocialLinks) > 0
	}
	embedded := matchPagesSubstr(view, "twitter.com/", "x.com/", "linkedin.com/posts", "youtube.com/embed")

	a := s.begin()
	a.Items = []core.ScoreItem{
		{
			Name: "Platform Coverage", MaxPoints: 20,
			ActualPoints: band(float64(len(platforms)), bandStep{4, 20}, bandStep{2, 14}, bandStep{1, 8}),
			Note:         s.coverageNote(platforms),
		},
		{
			Name: "LinkedIn Presence", MaxPoints: 15,
			ActualPoints: boolPoints(hasLinkedIn, 15),
			Note:         s.linkedInNote(hasLinkedIn, links),
		},
		{
			Name: "Homepage Integration", MaxPoints: 15,
			ActualPoints: boolPoints(homeLinked, 15),
			Note:         s.homeNote(homeLinked),
		},
		{
			Name: "Embedded Social Proof", MaxPoints: 10,
			ActualPoints: band(float64(embedded), bandStep{2, 10}, bandStep{1, 6}),
			Note:         fmt.Sprintf("%d pages embed or deep-link social posts", embedded),
		},
	}

	a.Findings = fmt.Sprintf(
		"Social presence review for %s based on the crawl. Linked platforms: %s. "+
			"LinkedIn linked: %t, homepage carries social links: %t, and %d pages embed social posts as proof. "+
			"The criteria earned %d of %d points. Posting cadence and engagement can only be judged "+
			"from the platforms themselves, which is outside this crawl.",
		view.Config().Website, s.coverageNote(platforms), hasLinkedIn, homeLinked, embedded,
		a.ActualPoints(), a.MaxPoints())

	a.Recommendations = s.recommend(platforms, hasLinkedIn, homeLinked)
	s.enrich(ctx, a, auditPreamble(view.Config(), "social presence"), s.prompt(view, platforms), fb)
	return s.finish(a), nil
}

func boolPoints(ok bool, max int) int {
	if ok {
		return max
	}
	return 0
}

func (s *Social) coverageNote(platforms []string) string {
	if len(platforms) == 0 {
		return "no social profiles linked anywhere"
	}
	return strings.Join(platforms, ", ")
}

func (s *Social) linkedInNote(has bool, links map[string]string) string {
	if has {
		return "company LinkedIn profile linked: " + links["linkedin"]
	}
	return "no LinkedIn link found on any page"
}

func (s *Social) homeNote(linked bool) string {
	if linked {
		return "homepage links social profiles"
	}
	return "homepage carries no social links"
}

func (s *Social) recommend(platforms []string, hasLinkedIn, homeLinked bool) []core.Recommendation {
	var recs []core.Recommendation
	if !hasLinkedIn {
		recs = append(recs, core.Recommendation{
			Issue:  "the B2B default channel (LinkedIn) is not linked from the site",
			Action: "Link the company LinkedIn profile from the site footer and about page.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "social",
		})
	}
	if len(platforms) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "social presence is effectively invisible from the website",
			Action: "Pick the two platforms the audience actually uses and link them site-wide.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "social",
		})
	}
	if !homeLinked {
		recs = append(recs, core.Recommendation{
			Issue:  "the homepage does not surface social profiles",
			Action: "Add footer social icons so visitors can verify the company is alive and active.",
			Impact: core.ImpactLow, Effort: core.EffortLow, Category: "social",
		})
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "social proof stays on the platforms instead of the site",
			Action: "Embed the two best-performing posts on the homepage or a wall-of-love page.",
			Impact: core.ImpactLow, Effort: core.EffortLow, Category: "social",
		})
	}
	return recs
}

func (s *Social) prompt(view core.ContextView, platforms []string) string {
	return fmt.Sprintf(
		"Evaluate the social presence of %s. Platforms linked from the site: %s.\nPages:\n%s",
		view.Config().Subject, strings.Join(platforms, ", "), pagesSummary(view, 10))
}
