package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// SocialListening estimates off-site reputation. It has no dependency
// on the crawl beyond the run configuration: the evidence lives on
// review sites and communities, so the analyzer does the heavy lifting
// and the degraded path is explicit about what it could not verify.
type SocialListening struct {
	unit
}

func NewSocialListening(analyzer core.Analyzer, log *logging.Logger) *SocialListening {
	return &SocialListening{unit: newUnit(
		"social_listening", "Brand Listening", nil, 1.0, analyzer, log,
	)}
}

func (s *SocialListening) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainFacts)
	cfg := view.Config()

	a := s.begin()
	a.Items = []core.ScoreItem{
		{Name: "Mention Volume", MaxPoints: 15, ActualPoints: 7, Note: core.PlaceholderNote},
		{Name: "Sentiment", MaxPoints: 15, ActualPoints: 7, Note: core.PlaceholderNote},
		{Name: "Community Presence", MaxPoints: 10, ActualPoints: 5,
			Note: s.communityNote(view.Facts().SocialLinks)},
	}

	a.Findings = fmt.Sprintf(
		"Brand listening review for %s. Off-site reputation lives on review platforms, "+
			"developer communities, and social threads that a website crawl cannot reach, so the mention-volume "+
			"and sentiment criteria are held at midpoint pending an external listening pass. "+
			"From on-site evidence alone the brand links %d social profiles, which bounds how much conversation "+
			"it can steer. The criteria earned %d of %d points as a conservative baseline.",
		cfg.Subject, len(view.Facts().SocialLinks), a.ActualPoints(), a.MaxPoints())

	a.Recommendations = []core.Recommendation{
		{
			Issue:  "no systematic view of where the brand is discussed",
			Action: "Set up alerts for the brand and top competitor names across G2, Reddit, and LinkedIn.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "listening",
		},
		{
			Issue:  "review-platform presence is unverified",
			Action: "Claim the G2/Capterra listings and seed ten reviews from recent happy customers.",
			Impact: core.ImpactMedium, Effort: core.EffortMedium, Category: "listening",
		},
	}

	s.enrich(ctx, a, auditPreamble(cfg, "brand listening"), s.prompt(cfg), fb)
	return s.finish(a), nil
}

func (s *SocialListening) communityNote(links map[string]string) string {
	if len(links) == 0 {
		return "no owned social channels to anchor community presence"
	}
	platforms := make([]string, 0, len(links))
	for p := range links {
		platforms = append(platforms, p)
	}
	return "owned channels on: " + strings.Join(dedupe(platforms), ", ")
}

func (s *SocialListening) prompt(cfg core.AuditConfig) string {
	return fmt.Sprintf(
		"Summarize the likely off-site reputation of %s (%s) in industry %q, competitors: %s. "+
			"State clearly which claims you can ground and which need external listening data.",
		cfg.Subject, cfg.Website, cfg.Industry, strings.Join(cfg.Competitors, ", "))
}
