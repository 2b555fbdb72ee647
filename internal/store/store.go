// Package store implements the shared context store agents read from and
// write to. State is partitioned into independently locked domains so
// concurrent agents in one phase never contend on a global lock; each
// domain's writes are atomic per key, with no cross-domain transactions.
package store

import (
	"maps"
	"sync"
	"time"

	"github.com/sitescope/sitescope/internal/core"
)

// Store is the concurrency-safe context store for one audit run.
// It implements core.AuditContext.
type Store struct {
	cfg core.AuditConfig // immutable after construction

	pagesMu sync.RWMutex
	pages   map[string]core.PageData

	shotsMu sync.RWMutex
	shots   map[string]core.ScreenshotRef

	analysesMu sync.RWMutex
	analyses   map[string]*core.AgentAnalysis

	factsMu sync.RWMutex
	facts   core.Facts

	logMu sync.Mutex
	log   []core.ChangeRecord
}

// New creates a context store with the given immutable configuration.
func New(cfg core.AuditConfig) *Store {
	return &Store{
		cfg:      cfg,
		pages:    make(map[string]core.PageData),
		shots:    make(map[string]core.ScreenshotRef),
		analyses: make(map[string]*core.AgentAnalysis),
	}
}

// Config returns the immutable run configuration.
func (s *Store) Config() core.AuditConfig {
	return s.cfg
}

// Page returns page data for a locator.
func (s *Store) Page(url string) (core.PageData, bool) {
	s.pagesMu.RLock()
	defer s.pagesMu.RUnlock()
	p, ok := s.pages[url]
	return p, ok
}

// Pages returns a copy of all collected pages.
func (s *Store) Pages() map[string]core.PageData {
	s.pagesMu.RLock()
	defer s.pagesMu.RUnlock()
	return maps.Clone(s.pages)
}

// Homepage returns the page for the configured website root, trying the
// bare and trailing-slash forms before falling back to any page.
func (s *Store) Homepage() (core.PageData, bool) {
	s.pagesMu.RLock()
	defer s.pagesMu.RUnlock()

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

// PagesByType returns all pages with the given classification.
func (s *Store) PagesByType(t core.PageType) []core.PageData {
	s.pagesMu.RLock()
	defer s.pagesMu.RUnlock()

	var out []core.PageData
	for _, p := range s.pages {
		if p.PageType == t {
			out = append(out, p)
		}
	}
	return out
}

// Screenshot returns a screenshot reference by key.
func (s *Store) Screenshot(key string) (core.ScreenshotRef, bool) {
	s.shotsMu.RLock()
	defer s.shotsMu.RUnlock()
	ref, ok := s.shots[key]
	return ref, ok
}

// Screenshots returns a copy of all screenshot references.
func (s *Store) Screenshots() map[string]core.ScreenshotRef {
	s.shotsMu.RLock()
	defer s.shotsMu.RUnlock()
	return maps.Clone(s.shots)
}

// Analysis returns the stored analysis for an agent.
func (s *Store) Analysis(agent string) (*core.AgentAnalysis, bool) {
	s.analysesMu.RLock()
	defer s.analysesMu.RUnlock()
	a, ok := s.analyses[agent]
	return a, ok
}

// Analyses returns a copy of all stored analyses.
func (s *Store) Analyses() map[string]*core.AgentAnalysis {
	s.analysesMu.RLock()
	defer s.analysesMu.RUnlock()
	return maps.Clone(s.analyses)
}

// Facts returns the derived facts.
func (s *Store) Facts() core.Facts {
	s.factsMu.RLock()
	defer s.factsMu.RUnlock()
	return s.facts
}

// PutPage stores page data, write-once per locator.
func (s *Store) PutPage(writer string, page core.PageData) error {
	s.pagesMu.Lock()
	if _, exists := s.pages[page.URL]; exists {
		s.pagesMu.Unlock()
		return core.ErrConflict(string(core.DomainPages), page.URL, writer)
	}
	s.pages[page.URL] = page
	s.pagesMu.Unlock()

	s.record(core.DomainPages, page.URL, writer)
	return nil
}

// PutScreenshot stores a screenshot reference, write-once per key.
func (s *Store) PutScreenshot(writer string, ref core.ScreenshotRef) error {
	key := ref.Key()

	s.shotsMu.Lock()
	if _, exists := s.shots[key]; exists {
		s.shotsMu.Unlock()
		return core.ErrConflict(string(core.DomainScreenshots), key, writer)
	}
	s.shots[key] = ref
	s.shotsMu.Unlock()

	s.record(core.DomainScreenshots, key, writer)
	return nil
}

// PutAnalysis stores an agent's analysis, replacing any prior value.
func (s *Store) PutAnalysis(writer string, analysis *core.AgentAnalysis) {
	s.analysesMu.Lock()
	s.analyses[analysis.AgentName] = analysis
	s.analysesMu.Unlock()

	s.record(core.DomainAnalyses, analysis.AgentName, writer)
}

// UpdateFacts applies fn to the derived facts under the facts lock.
func (s *Store) UpdateFacts(writer string, fn func(*core.Facts)) {
	s.factsMu.Lock()
	fn(&s.facts)
	s.factsMu.Unlock()

	s.record(core.DomainFacts, "facts", writer)
}

// ChangeLog returns a copy of the diagnostics change log.
func (s *Store) ChangeLog() []core.ChangeRecord {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	out := make([]core.ChangeRecord, len(s.log))
	copy(out, s.log)
	return out
}

// Snapshot returns an immutable copy of the named domains. When no
// domains are given, all domains are copied. Readers of the snapshot are
// fully decoupled from concurrent writers in later phases.
func (s *Store) Snapshot(domains ...core.Domain) core.ContextView {
	if len(domains) == 0 {
		domains = core.AllDomains()
	}

	snap := &snapshot{
		cfg:      s.cfg,
		pages:    map[string]core.PageData{},
		shots:    map[string]core.ScreenshotRef{},
		analyses: map[string]*core.AgentAnalysis{},
	}

	for _, d := range domains {
		switch d {
		case core.DomainPages:
			s.pagesMu.RLock()
			snap.pages = maps.Clone(s.pages)
			s.pagesMu.RUnlock()
		case core.DomainScreenshots:
			s.shotsMu.RLock()
			snap.shots = maps.Clone(s.shots)
			s.shotsMu.RUnlock()
		case core.DomainAnalyses:
			s.analysesMu.RLock()
			snap.analyses = make(map[string]*core.AgentAnalysis, len(s.analyses))
			for k, v := range s.analyses {
				clone := *v
				snap.analyses[k] = &clone
			}
			s.analysesMu.RUnlock()
		case core.DomainFacts:
			s.factsMu.RLock()
			snap.facts = s.facts
			s.factsMu.RUnlock()
		}
	}
	return snap
}

func (s *Store) record(domain core.Domain, key, writer string) {
	s.logMu.Lock()
	s.log = append(s.log, core.ChangeRecord{
		Domain:    domain,
		Key:       key,
		Writer:    writer,
		Timestamp: time.Now(),
	})
	s.logMu.Unlock()
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
