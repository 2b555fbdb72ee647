package agents

import (
	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
	"github.com/sitescope/sitescope/internal/service"
)

// RegisterAll registers the full audit roster in canonical order.
// Names in disabled are skipped; the website producer cannot be
// disabled because every other agent depends on its facts.
func RegisterAll(reg *service.Registry, analyzer core.Analyzer, log *logging.Logger, disabled ...string) error {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}

	roster := []core.Agent{
		NewWebsite(analyzer, log),
		NewDeepResearch(analyzer, log),
		NewPositioning(analyzer, log),
		NewSEO(analyzer, log),
		NewConversion(analyzer, log),
		NewContent(analyzer, log),
		NewTrust(analyzer, log),
		NewSocial(analyzer, log),
		NewSegmentation(analyzer, log),
		NewPromptVisibility(analyzer, log),
		NewSocialListening(analyzer, log),
		NewResourceHub(analyzer, log),
		NewTopPages(analyzer, log),
		NewCompetitor(analyzer, log),
	}

	for _, a := range roster {
		if skip[a.Name()] && a.Name() != "website" {
			continue
		}
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}
