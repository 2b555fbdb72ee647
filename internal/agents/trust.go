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

// Trust scans the crawl for credibility signals a skeptical buyer
// looks for: customer evidence, third-party validation, and security
// posture. Detection is pattern-based over page text.
type Trust struct {
	unit
}

func NewTrust(analyzer core.Analyzer, log *logging.Logger) *Trust {
	return &Trust{unit: newUnit(
		"trust", "Trust & Credibility", []string{"website"}, 1.0, analyzer, log,
	)}
}

type trustSignal struct {
	name    string
	max     int
	pattern *regexp.Regexp
}

var trustSignals = []trustSignal{
	{"Customer Logos", 15, regexp.MustCompile(`trusted by|used by|customers include|join \d|companies (use|trust)`)},
	{"Testimonials", 20, regexp.MustCompile(`testimonial|"[^"]{20,}"\s*[-—]|what our (customers|clients) say`)},
	{"Case Studies", 20, regexp.MustCompile(`case stud|success stor|customer stor|\d+% (increase|reduction|improvement)`)},
	{"Awards & Recognition", 10, regexp.MustCompile(`award|recognized|leader in|gartner|forrester|g2|capterra`)},
	{"Security & Compliance", 10, regexp.MustCompile(`soc\s?2|iso\s?27001|gdpr|hipaa|encrypt|security`)},
	{"Press & Media", 10, regexp.MustCompile(`featured in|as seen (in|on)|press|techcrunch|forbes|wsj`)},
	{"Reviews", 5, regexp.MustCompile(`\d\.\d\s?(stars|/\s?5)|review|rating`)},
}

func (t *Trust) Execute(ctx context.Context, ac core.AuditContext, fb *core.Feedback) (*core.AgentAnalysis, error) {
	view := ac.Snapshot(core.DomainPages)
	if len(view.Pages()) == 0 {
		return nil, core.ErrAgentExecution(t.name, "no pages to analyze")
	}

	testimonialCount := 0
	for _, p := range view.Pages() {
		testimonialCount += len(p.Testimonials)
	}
	hasAbout := len(view.PagesByType(core.PageTypeAbout)) > 0

	a := t.begin()
	var detected []string
	for _, sig := range trustSignals {
		hits := matchPages(view, sig.pattern)
		item := core.ScoreItem{Name: sig.name, MaxPoints: sig.max}
		if sig.name == "Testimonials" && testimonialCount > 0 {
			// collector-extracted testimonials override the text match
			item.ActualPoints = sig.max
			item.Note = fmt.Sprintf("%d testimonials extracted across the crawl", testimonialCount)
		} else if hits > 0 {
			item.ActualPoints = band(float64(hits), bandStep{3, sig.max}, bandStep{1, sig.max * 6 / 10})
			item.Note = fmt.Sprintf("signal detected on %d pages", hits)
		} else {
			item.ActualPoints = 0
			item.Note = "not detected anywhere in the crawl"
		}
		if item.ActualPoints > 0 {
			detected = append(detected, sig.name)
		}
		a.Items = append(a.Items, item)
	}

	teamItem := core.ScoreItem{Name: "Team & About", MaxPoints: 10}
	if hasAbout {
		teamItem.ActualPoints = 8
		teamItem.Note = "about page present; leadership depth needs a manual look"
	} else {
		teamItem.Note = "no about page in the crawl"
	}
	a.Items = append(a.Items, teamItem)
	if teamItem.ActualPoints > 0 {
		detected = append(detected, teamItem.Name)
	}
	sort.Strings(detected)

	a.Findings = fmt.Sprintf(
		"Trust signal scan across %d pages of %s. Detected: %s. "+
			"%d testimonials were extracted as structured data. About page present: %t. "+
			"The credibility criteria earned %d of %d points; absent signals are the fastest wins "+
			"since buyers discount claims that carry no third-party evidence.",
		len(view.Pages()), view.Config().Website, strings.Join(detected, ", "),
		testimonialCount, hasAbout, a.ActualPoints(), a.MaxPoints())

	a.Recommendations = t.recommend(a.Items)
	t.enrich(ctx, a, auditPreamble(view.Config(), "trust and credibility"), t.prompt(view), fb)
	return t.finish(a), nil
}

func (t *Trust) recommend(items []core.ScoreItem) []core.Recommendation {
	var recs []core.Recommendation
	for _, it := range items {
		if it.ActualPoints > 0 {
			continue
		}
		switch it.Name {
		case "Customer Logos":
			recs = append(recs, core.Recommendation{
				Issue:  "no customer logos or \"trusted by\" proof above the fold",
				Action: "Add a logo strip of five recognizable customers to the homepage hero.",
				Impact: core.ImpactHigh, Effort: core.EffortLow, Category: "trust",
			})
		case "Case Studies":
			recs = append(recs, core.Recommendation{
				Issue:  "no quantified customer outcomes anywhere on the site",
				Action: "Publish a case study with a headline metric and link it from the product page.",
				Impact: core.ImpactHigh, Effort: core.EffortMedium, Category: "trust",
			})
		case "Security & Compliance":
			recs = append(recs, core.Recommendation{
				Issue:  "no security or compliance posture is stated",
				Action: "Add a security page covering data handling and any certifications in progress.",
				Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "trust",
			})
		}
		if len(recs) >= 3 {
			break
		}
	}
	if len(recs) < 2 {
		recs = append(recs, core.Recommendation{
			Issue:  "trust signals are scattered rather than placed at decision points",
			Action: "Pair each pricing and signup CTA with the nearest relevant proof point.",
			Impact: core.ImpactMedium, Effort: core.EffortLow, Category: "trust",
		})
	}
	return recs
}

func (t *Trust) prompt(view core.ContextView) string {
	var b strings.Builder
	b.WriteString("Audit the trust and credibility signals on these pages:\n")
	b.WriteString(pagesSummary(view, 15))
	return b.String()
}
