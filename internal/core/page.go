package core

// PageData holds everything extracted from a single crawled page.
// Pages are write-once in the context store: the website agent populates
// them and every downstream agent reads them.
type PageData struct {
	URL             string            `json:"url"`
	Title           string            `json:"title,omitempty"`
	MetaDescription string            `json:"meta_description,omitempty"`
	H1              []string          `json:"h1,omitempty"`
	H2              []string          `json:"h2,omitempty"`
	H3              []string          `json:"h3,omitempty"`
	Paragraphs      []string          `json:"paragraphs,omitempty"`
	InternalLinks   []string          `json:"internal_links,omitempty"`
	ExternalLinks   []string          `json:"external_links,omitempty"`
	CTAs            []CTA             `json:"ctas,omitempty"`
	Forms           []Form            `json:"forms,omitempty"`
	SocialLinks     map[string]string `json:"social_links,omitempty"`
	Testimonials    []string          `json:"testimonials,omitempty"`
	HasSchema       bool              `json:"has_schema,omitempty"`
	SchemaTypes     []string          `json:"schema_types,omitempty"`
	StatusCode      int               `json:"status_code"`
	LoadTime        float64           `json:"load_time_seconds"`
	ContentLength   int               `json:"content_length"`
	RawText         string            `json:"raw_text,omitempty"`
	PageType        PageType          `json:"page_type"`
}

// CTA is a call-to-action element found on a page.
type CTA struct {
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
	Kind string `json:"kind,omitempty"` // button, link, form_submit
}

// Form is a lead-capture form found on a page.
type Form struct {
	Action string   `json:"action,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Gated  bool     `json:"gated,omitempty"`
}

// PageType classifies a crawled page.
type PageType string

const (
	PageTypeHome      PageType = "home"
	PageTypeProduct   PageType = "product"
	PageTypeSolutions PageType = "solutions"
	PageTypePricing   PageType = "pricing"
	PageTypeAbout     PageType = "about"
	PageTypeBlog      PageType = "blog"
	PageTypeResources PageType = "resources"
	PageTypeContact   PageType = "contact"
	PageTypeLanding   PageType = "landing"
	PageTypeOther     PageType = "other"
)

// ScreenshotKind distinguishes full-page captures from element captures.
type ScreenshotKind string

const (
	ScreenshotFullPage ScreenshotKind = "full_page"
	ScreenshotElement  ScreenshotKind = "element"
)

// ScreenshotRef is image-reference metadata for a captured page.
// Write-once in the context store; a failed capture is recorded with an
// empty Path and a Note rather than being dropped.
type ScreenshotRef struct {
	URL        string         `json:"url"`
	Kind       ScreenshotKind `json:"kind"`
	Selector   string         `json:"selector,omitempty"`
	Path       string         `json:"path,omitempty"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	CapturedAt string         `json:"captured_at,omitempty"`
	Note       string         `json:"note,omitempty"`
}

// Key returns the context-store key for a screenshot reference.
func (s ScreenshotRef) Key() string {
	k := s.URL + ":" + string(s.Kind)
	if s.Selector != "" {
		k += ":" + s.Selector
	}
	return k
}

// Captured reports whether the screenshot was actually taken.
func (s ScreenshotRef) Captured() bool {
	return s.Path != ""
}

// Segment is a target-audience segment identified by the segmentation agent.
type Segment struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	PainPoints      []string `json:"pain_points,omitempty"`
	CoverageScore   float64  `json:"coverage_score"` // 0-100
	PagesAddressing []string `json:"pages_addressing,omitempty"`
}

// CriticalPage is one of the top pages graded by the top5_pages agent.
type CriticalPage struct {
	PageType   PageType       `json:"page_type"`
	URL        string         `json:"url"`
	Score      float64        `json:"score"`
	MaxScore   float64        `json:"max_score"`
	Strengths  []string       `json:"strengths,omitempty"`
	Weaknesses []string       `json:"weaknesses,omitempty"`
	Screenshot *ScreenshotRef `json:"screenshot,omitempty"`
}

// LandingPage is a conversion-focused page catalogued by the resource_hub agent.
type LandingPage struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	HasForm  bool   `json:"has_form"`
	CTACount int    `json:"cta_count"`
}

// GatedContent is a download/offer behind a form.
type GatedContent struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Format string `json:"format,omitempty"` // ebook, webinar, whitepaper, other
}
