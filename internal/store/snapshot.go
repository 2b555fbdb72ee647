package store

import (
	"maps"

	"github.com/sitescope/sitescope/internal/core"
)

// snapshot is a point-in-time copy of selected store domains. It is
// never mutated after construction, so reads need no locking.
type snapshot struct {
	cfg      core.AuditConfig
	pages    map[string]core.PageData
	shots    map[string]core.ScreenshotRef
	analyses map[string]*core.AgentAnalysis
	facts    core.Facts
}

func (s *snapshot) Config() core.AuditConfig { return s.cfg }

func (s *snapshot) Page(url string) (core.PageData, bool) {
	p, ok := s.pages[url]
	return p, ok
}

func (s *snapshot) Pages() map[string]core.PageData {
	return maps.Clone(s.pages)
}

func (s *snapshot) Homepage() (core.PageData, bool) {
	root := trimSlash(s.cfg.Website)
	for _, candidate := range []string{root, root + "/"} {
		if p, ok := s.pages[candidate]; ok {
			return p, true
		}
	}
	for _, p := range s.pages {
		return p, true
	}
	return core.PageData{}, false
}

func (s *snapshot) PagesByType(t core.PageType) []core.PageData {
	var out []core.PageData
	for _, p := range s.pages {
		if p.PageType == t {
			out = append(out, p)
		}
	}
	return out
}

func (s *snapshot) Screenshot(key string) (core.ScreenshotRef, bool) {
	ref, ok := s.shots[key]
	return ref, ok
}

func (s *snapshot) Screenshots() map[string]core.ScreenshotRef {
	return maps.Clone(s.shots)
}

func (s *snapshot) Analysis(agent string) (*core.AgentAnalysis, bool) {
	a, ok := s.analyses[agent]
	return a, ok
}

func (s *snapshot) Analyses() map[string]*core.AgentAnalysis {
	return maps.Clone(s.analyses)
}

func (s *snapshot) Facts() core.Facts { return s.facts }
