// Package collect crawls the audited website and turns each page into
// the structured page data every agent scores against. The crawl is a
// bounded breadth-first walk of same-host links starting at the root.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

const defaultUserAgent = "sitescope/1.0 (+https://github.com/sitescope/sitescope)"

// Collector implements core.Collector over plain HTTP.
type Collector struct {
	client      *http.Client
	userAgent   string
	pageTimeout time.Duration
	log         *logging.Logger
}

// Option configures the collector.
type Option func(*Collector)

// WithUserAgent overrides the crawl user agent.
func WithUserAgent(ua string) Option {
	return func(c *Collector) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPageTimeout bounds each page fetch.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.pageTimeout = d
		}
	}
}

// WithHTTPClient swaps the underlying client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		if client != nil {
			c.client = client
		}
	}
}

// New creates a collector.
func New(log *logging.Logger, opts ...Option) *Collector {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Collector{
		client:      &http.Client{Timeout: 30 * time.Second},
		userAgent:   defaultUserAgent,
		pageTimeout: 15 * time.Second,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect walks the site breadth-first from the root, fetching at most
// scope.MaxPages pages. A root that cannot be fetched fails the crawl;
// interior fetch failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context, scope core.CollectScope) (map[string]core.PageData, error) {
	root, err := url.Parse(scope.RootURL)
	if err != nil || root.Host == "" {
		return nil, core.ErrCollect(fmt.Sprintf("invalid root url %q", scope.RootURL))
	}
	maxPages := scope.MaxPages
	if maxPages <= 0 {
		maxPages = 25
	}

	pages := make(map[string]core.PageData)
	queue := []string{normalizeURL(root.String())}
	seen := map[string]bool{queue[0]: true}

	for len(queue) > 0 && len(pages) < maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := queue[0]
		queue = queue[1:]

		page, err := c.fetch(ctx, target)
		if err != nil {
			if len(pages) == 0 {
				return nil, core.ErrCollect(fmt.Sprintf("fetching root %s: %v", target, err))
			}
			c.log.Warn("page fetch failed, skipping", "url", target, "error", err)
			continue
		}
		pages[target] = page

		for _, link := range page.InternalLinks {
			norm := normalizeURL(link)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			queue = append(queue, norm)
		}
	}

	c.log.Info("crawl complete", "pages", len(pages), "root", scope.RootURL)
	return pages, nil
}

func (c *Collector) fetch(ctx context.Context, target string) (core.PageData, error) {
	fctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, target, nil)
	if err != nil {
		return core.PageData{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return core.PageData{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	loadTime := time.Since(start).Seconds()
	if err != nil {
		return core.PageData{}, fmt.Errorf("parsing %s: %w", target, err)
	}

	page := extractPage(doc, target, resp)
	page.LoadTime = loadTime
	return page, nil
}

// extractPage pulls the structured fields out of a parsed document.
func extractPage(doc *goquery.Document, pageURL string, resp *http.Response) core.PageData {
	base, _ := url.Parse(pageURL)

	page := core.PageData{
		URL:         pageURL,
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		StatusCode:  resp.StatusCode,
		SocialLinks: map[string]string{},
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		page.MetaDescription = strings.TrimSpace(desc)
	}

	for tag, dst := range map[string]*[]string{"h1": &page.H1, "h2": &page.H2, "h3": &page.H3} {
		doc.Find(tag).Each(func(_ int, sel *goquery.Selection) {
			if t := strings.TrimSpace(sel.Text()); t != "" {
				*dst = append(*dst, t)
			}
		})
	}
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); len(t) > 20 {
			page.Paragraphs = append(page.Paragraphs, t)
		}
	})

	internal := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := resolveLink(base, href)
		if abs == nil {
			return
		}
		if platform := socialPlatform(abs.Host + abs.Path); platform != "" {
			if _, ok := page.SocialLinks[platform]; !ok {
				page.SocialLinks[platform] = abs.String()
			}
			return
		}
		if abs.Host == base.Host {
			clean := normalizeURL(abs.String())
			if !internal[clean] && clean != normalizeURL(pageURL) {
				internal[clean] = true
				page.InternalLinks = append(page.InternalLinks, clean)
			}
			if isCTA(sel) {
				page.CTAs = append(page.CTAs, core.CTA{
					Text: strings.TrimSpace(sel.Text()), Href: clean, Kind: "link",
				})
			}
			return
		}
		page.ExternalLinks = append(page.ExternalLinks, abs.String())
	})

	doc.Find("button").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			page.CTAs = append(page.CTAs, core.CTA{Text: t, Kind: "button"})
		}
	})

	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		form := core.Form{}
		form.Action, _ = sel.Attr("action")
		sel.Find("input, textarea, select").Each(func(_ int, in *goquery.Selection) {
			typ, _ := in.Attr("type")
			if typ == "hidden" || typ == "submit" {
				return
			}
			if name, ok := in.Attr("name"); ok && name != "" {
				form.Fields = append(form.Fields, name)
			}
		})
		form.Gated = looksGated(pageURL, page.Title, form)
		page.Forms = append(page.Forms, form)
	})

	doc.Find(`blockquote, [class*="testimonial"], [class*="quote"]`).Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); len(t) > 30 && len(t) < 600 {
			page.Testimonials = append(page.Testimonials, t)
		}
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		page.HasSchema = true
		var payload struct {
			Type string `json:"@type"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err == nil && payload.Type != "" {
			page.SchemaTypes = append(page.SchemaTypes, payload.Type)
		}
	})

	body := strings.TrimSpace(doc.Find("body").Text())
	page.RawText = strings.Join(strings.Fields(body), " ")
	page.ContentLength = len(page.RawText)
	page.PageType = Classify(pageURL, page.Title)
	return page
}

func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return nil
	}
	abs.Fragment = ""
	return abs
}

func normalizeURL(raw string) string {
	raw = strings.TrimSuffix(raw, "/")
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

var ctaWords = []string{"get started", "start", "try", "demo", "sign up", "signup", "book", "request", "download", "contact", "talk to", "free trial"}

func isCTA(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	if strings.Contains(strings.ToLower(class), "btn") || strings.Contains(strings.ToLower(class), "button") || strings.Contains(strings.ToLower(class), "cta") {
		return true
	}
	text := strings.ToLower(strings.TrimSpace(sel.Text()))
	for _, w := range ctaWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

var socialHosts = map[string]string{
	"linkedin.com":  "linkedin",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"youtube.com":   "youtube",
	"github.com":    "github",
	"tiktok.com":    "tiktok",
}

func socialPlatform(hostPath string) string {
	hostPath = strings.TrimPrefix(strings.ToLower(hostPath), "www.")
	for host, platform := range socialHosts {
		if strings.HasPrefix(hostPath, host+"/") && len(hostPath) > len(host)+1 {
			return platform
		}
	}
	return ""
}

var gatedWords = []string{"download", "ebook", "e-book", "webinar", "whitepaper", "white-paper", "report", "guide", "template"}

func looksGated(pageURL, title string, form core.Form) bool {
	if len(form.Fields) == 0 {
		return false
	}
	hay := strings.ToLower(pageURL + " " + title + " " + form.Action)
	for _, w := range gatedWords {
		if strings.Contains(hay, w) {
			return true
		}
	}
	return false
}

// Classify maps a URL and title to a page type, first by path segment,
// then by title keywords.
func Classify(pageURL, title string) core.PageType {
	u, err := url.Parse(pageURL)
	if err != nil {
		return core.PageTypeOther
	}
	path := strings.ToLower(strings.Trim(u.Path, "/"))
	if path == "" {
		return core.PageTypeHome
	}
	first := path
	if i := strings.Index(path, "/"); i >= 0 {
		first = path[:i]
	}

	byPath := map[string]core.PageType{
		"pricing": core.PageTypePricing, "plans": core.PageTypePricing,
		"product": core.PageTypeProduct, "products": core.PageTypeProduct,
		"features": core.PageTypeProduct, "platform": core.PageTypeProduct,
		"solutions": core.PageTypeSolutions, "solution": core.PageTypeSolutions,
		"use-cases": core.PageTypeSolutions, "industries": core.PageTypeSolutions,
		"about": core.PageTypeAbout, "about-us": core.PageTypeAbout,
		"company": core.PageTypeAbout, "team": core.PageTypeAbout,
		"blog": core.PageTypeBlog, "news": core.PageTypeBlog, "articles": core.PageTypeBlog,
		"resources": core.PageTypeResources, "library": core.PageTypeResources,
		"guides": core.PageTypeResources, "docs": core.PageTypeResources,
		"contact": core.PageTypeContact, "contact-us": core.PageTypeContact,
		"demo": core.PageTypeContact,
		"lp":   core.PageTypeLanding, "landing": core.PageTypeLanding,
	}
	if t, ok := byPath[first]; ok {
		return t
	}

	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "pricing"):
		return core.PageTypePricing
	case strings.Contains(lower, "about"):
		return core.PageTypeAbout
	case strings.Contains(lower, "contact"):
		return core.PageTypeContact
	case strings.Contains(lower, "blog"):
		return core.PageTypeBlog
	}
	return core.PageTypeOther
}
