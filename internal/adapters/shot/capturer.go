// Package shot captures page screenshots through a headless browser
// binary. Capture failures are non-fatal to a run: the engine records
// the miss and the report renders without the image.
package shot

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

const (
	defaultWidth  = 1440
	defaultHeight = 900
)

// candidateBrowsers are probed in order when no binary is configured.
var candidateBrowsers = []string{"chromium", "chromium-browser", "google-chrome", "chrome"}

// FindBrowser probes PATH for a usable headless browser binary.
func FindBrowser() (string, bool) {
	for _, name := range candidateBrowsers {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// Capturer implements core.Capturer by shelling out to a headless
// Chromium-compatible browser.
type Capturer struct {
	browserPath string
	dir         string
	timeout     time.Duration
	log         *logging.Logger
}

// Option configures the capturer.
type Option func(*Capturer)

// WithBrowserPath pins the browser binary instead of probing PATH.
func WithBrowserPath(path string) Option {
	return func(c *Capturer) {
		if path != "" {
			c.browserPath = path
		}
	}
}

// WithTimeout bounds a single capture.
func WithTimeout(d time.Duration) Option {
	return func(c *Capturer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a capturer writing images under dir.
func New(dir string, log *logging.Logger, opts ...Option) *Capturer {
	if log == nil {
		log = logging.NewNop()
	}
	c := &Capturer{
		dir:     dir,
		timeout: 30 * time.Second,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.browserPath == "" {
		if path, ok := FindBrowser(); ok {
			c.browserPath = path
		}
	}
	return c
}

// Capture renders the page and writes a PNG under the capture
// directory. A non-empty selector is recorded on the reference; the
// headless CLI cannot crop to it, so the image is still full page.
func (c *Capturer) Capture(ctx context.Context, pageURL, selector string) (core.ScreenshotRef, error) {
	ref := core.ScreenshotRef{
		URL:    pageURL,
		Kind:   core.ScreenshotFullPage,
		Width:  defaultWidth,
		Height: defaultHeight,
	}
	if selector != "" {
		ref.Kind = core.ScreenshotElement
		ref.Selector = selector
	}

	if c.browserPath == "" {
		return ref, fmt.Errorf("no headless browser found on PATH")
	}
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return ref, fmt.Errorf("creating screenshot directory: %w", err)
	}

	outPath := filepath.Join(c.dir, fileNameFor(pageURL, selector))
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.browserPath,
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--hide-scrollbars",
		fmt.Sprintf("--window-size=%d,%d", defaultWidth, defaultHeight),
		"--screenshot="+outPath,
		pageURL,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ref, fmt.Errorf("capturing %s: %w (%s)", pageURL, err, truncate(string(output), 200))
	}
	if fi, statErr := os.Stat(outPath); statErr != nil || fi.Size() == 0 {
		return ref, fmt.Errorf("browser exited cleanly but wrote no image for %s", pageURL)
	}

	ref.Path = outPath
	ref.CapturedAt = time.Now().UTC().Format(time.RFC3339)
	c.log.Debug("screenshot captured", "url", pageURL, "path", outPath)
	return ref, nil
}

// fileNameFor derives a stable, filesystem-safe name for a capture.
func fileNameFor(pageURL, selector string) string {
	h := sha1.Sum([]byte(pageURL + "|" + selector))
	slug := strings.ToLower(strings.Trim(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, strings.TrimPrefix(strings.TrimPrefix(pageURL, "https://"), "http://")), "-"))
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return fmt.Sprintf("%s-%s.png", slug, hex.EncodeToString(h[:4]))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
