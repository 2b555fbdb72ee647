package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/service"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":     false,
		"status":  false,
		"serve":   false,
		"doctor":  false,
		"version": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestDurationOr(t *testing.T) {
	tests := []struct {
		in       string
		fallback time.Duration
		want     time.Duration
	}{
		{"30s", time.Minute, 30 * time.Second},
		{"", time.Minute, time.Minute},
		{"nonsense", time.Minute, time.Minute},
		{"-5s", time.Minute, time.Minute},
	}
	for _, tt := range tests {
		if got := durationOr(tt.in, tt.fallback); got != tt.want {
			t.Errorf("durationOr(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID short input = %q", got)
	}
}

func TestRenderRunSummary(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	report := &core.Report{
		RunID:   "run-1",
		Subject: "Acme",
		Website: "https://acme.test",
		Modules: []*core.AgentAnalysis{
			{
				AgentName: "seo",
				Title:     "SEO & Technical Health",
				Weight:    1.0,
				Items: []core.ScoreItem{
					{Name: "Meta Tags", MaxPoints: 15, ActualPoints: 12},
					{Name: "Page Speed", MaxPoints: 20, ActualPoints: 16},
				},
			},
			{
				AgentName: "website",
				Title:     "Website Intelligence",
				Weight:    0,
			},
		},
		Caveats: []core.Caveat{
			{AgentName: "trust", Kind: "degraded", Detail: "heuristic result"},
		},
		PagesSeen: 12,
	}
	out := renderRunSummary(&service.RunResult{
		RunID:        "run-1",
		Report:       report,
		ArtifactPath: "/tmp/report.html",
	})

	for _, want := range []string{"Acme audit", "SEO & Technical Health", "28/35", "trust", "/tmp/report.html"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	// Weight-0 modules carry no score and stay off the module table.
	if strings.Contains(out, "Website Intelligence") {
		t.Errorf("summary should not list zero-point modules:\n%s", out)
	}
}

func TestStatusGlyph(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	if got := statusGlyph(core.RunStatusCompleted); got != "ok" {
		t.Errorf("completed glyph = %q", got)
	}
	if got := statusGlyph(core.RunStatusFailed); got != "failed" {
		t.Errorf("failed glyph = %q", got)
	}
	if got := statusGlyph(core.RunStatusRunning); got != "running" {
		t.Errorf("running glyph = %q", got)
	}
}
