package core

import "time"

// Domain names a lockable partition of the context store.
type Domain string

const (
	DomainPages       Domain = "pages"       // write-once per locator
	DomainScreenshots Domain = "screenshots" // write-once per key
	DomainAnalyses    Domain = "analyses"    // overwrite on revision
	DomainFacts       Domain = "facts"       // written by designated agents
)

// AllDomains returns every context-store domain.
func AllDomains() []Domain {
	return []Domain{DomainPages, DomainScreenshots, DomainAnalyses, DomainFacts}
}

// ChangeRecord is one entry in the context store's diagnostics change log.
// The log never drives control flow.
type ChangeRecord struct {
	Domain    Domain    `json:"domain"`
	Key       string    `json:"key"`
	Writer    string    `json:"writer"`
	Timestamp time.Time `json:"timestamp"`
}

// Facts holds the derived facts written by designated agents and read by
// downstream agents and the renderer.
type Facts struct {
	Segments             []Segment      `json:"segments,omitempty"`
	PrimarySegment       string         `json:"primary_segment,omitempty"`
	CriticalPages        []CriticalPage `json:"critical_pages,omitempty"`
	LandingPages         []LandingPage  `json:"landing_pages,omitempty"`
	GatedContent         []GatedContent `json:"gated_content,omitempty"`
	SocialLinks          map[string]string `json:"social_links,omitempty"`
	ResearchBrief        string         `json:"research_brief,omitempty"`
	DiscoveredCompetitors []string      `json:"discovered_competitors,omitempty"`
}

// AuditConfig is the immutable run configuration every agent can read.
type AuditConfig struct {
	Subject     string   `json:"subject"`
	Website     string   `json:"website"`
	Industry    string   `json:"industry"`
	AuditDate   string   `json:"audit_date"`
	Analyst     string   `json:"analyst"`
	AnalystOrg  string   `json:"analyst_org"`
	Competitors []string `json:"competitors"`
	MaxPages    int      `json:"max_pages"`
}

// ContextView is a read-only view over the context store. Snapshots
// returned by AuditContext.Snapshot are immutable copies decoupled from
// writes in later phases.
type ContextView interface {
	// Config returns the immutable run configuration.
	Config() AuditConfig

	// Page returns page data for a locator.
	Page(url string) (PageData, bool)

	// Pages returns all collected pages keyed by locator.
	Pages() map[string]PageData

	// Homepage returns the page matching the configured website root,
	// falling back to any page when no exact match exists.
	Homepage() (PageData, bool)

	// PagesByType returns all pages with the given classification.
	PagesByType(t PageType) []PageData

	// Screenshot returns a screenshot reference by key.
	Screenshot(key string) (ScreenshotRef, bool)

	// Screenshots returns all screenshot references keyed by ScreenshotRef.Key.
	Screenshots() map[string]ScreenshotRef

	// Analysis returns the stored analysis for an agent.
	Analysis(agent string) (*AgentAnalysis, bool)

	// Analyses returns all stored analyses keyed by agent name.
	Analyses() map[string]*AgentAnalysis

	// Facts returns the derived facts.
	Facts() Facts
}

// AuditContext is the full contract the context store grants agents:
// reads, contractual writes, and snapshot isolation. All operations are
// safe under concurrent callers; writes are atomic per key, never across
// keys or domains.
type AuditContext interface {
	ContextView

	// Snapshot returns an immutable copy of the named domains (all
	// domains when none given), decoupling readers from writers in
	// later phases.
	Snapshot(domains ...Domain) ContextView

	// PutPage stores page data, write-once per locator. A second write
	// to a populated locator fails with a conflict error.
	PutPage(writer string, page PageData) error

	// PutScreenshot stores a screenshot reference, write-once per key.
	PutScreenshot(writer string, ref ScreenshotRef) error

	// PutAnalysis stores an agent's analysis, overwriting any prior
	// value (revisions replace, never merge).
	PutAnalysis(writer string, analysis *AgentAnalysis)

	// UpdateFacts applies fn to the derived facts under the facts lock.
	// Only the designated producer agents call this.
	UpdateFacts(writer string, fn func(*Facts))

	// ChangeLog returns a copy of the diagnostics change log.
	ChangeLog() []ChangeRecord
}
