// Package render turns a frozen report into the final artifacts: a
// self-contained HTML document and a YAML manifest for downstream
// tooling. Files are written atomically so a watcher or web server
// never reads a half-written report.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
	"gopkg.in/yaml.v3"
)

//go:embed template.html
var reportTemplate string

// Renderer implements core.Renderer.
type Renderer struct {
	dir     string
	formats map[string]bool
	log     *logging.Logger
	tmpl    *template.Template
}

// New creates a renderer writing artifacts under dir. Formats may
// include "html" and "yaml"; empty means both.
func New(dir string, formats []string, log *logging.Logger) (*Renderer, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if len(formats) == 0 {
		formats = []string{"html", "yaml"}
	}
	fm := make(map[string]bool, len(formats))
	for _, f := range formats {
		fm[strings.ToLower(f)] = true
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &Renderer{dir: dir, formats: fm, log: log, tmpl: tmpl}, nil
}

// templateData bundles the report with the derived values the template
// needs precomputed.
type templateData struct {
	Report    *core.Report
	Overall   float64
	Outcome   core.Outcome
	Friction  core.FrictionPoint
	QuickWins []core.Recommendation
}

// Render writes the configured artifact formats and returns the path
// of the primary (HTML when enabled, otherwise YAML) artifact.
func (r *Renderer) Render(ctx context.Context, report *core.Report, view core.ContextView) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runDir := filepath.Join(r.dir, report.RunID)
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	primary := ""
	if r.formats["html"] {
		path := filepath.Join(runDir, "report.html")
		if err := r.renderHTML(path, report); err != nil {
			return "", err
		}
		primary = path
	}
	if r.formats["yaml"] {
		path := filepath.Join(runDir, "report.yaml")
		if err := r.renderYAML(path, report); err != nil {
			return "", err
		}
		if primary == "" {
			primary = path
		}
	}
	if primary == "" {
		return "", fmt.Errorf("no output formats enabled")
	}
	r.log.Info("report rendered", "path", primary, "run", report.RunID)
	return primary, nil
}

func (r *Renderer) renderHTML(path string, report *core.Report) error {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, templateData{
		Report:    report,
		Overall:   report.OverallPercentage(),
		Outcome:   report.OverallOutcome(),
		Friction:  report.Synthesize(),
		QuickWins: report.QuickWins(5),
	})
	if err != nil {
		return fmt.Errorf("executing report template: %w", err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing html report: %w", err)
	}
	return nil
}

// yamlManifest is the machine-readable report summary.
type yamlManifest struct {
	RunID     string             `yaml:"run_id"`
	Subject   string             `yaml:"subject"`
	Website   string             `yaml:"website"`
	AuditDate string             `yaml:"audit_date"`
	Overall   float64            `yaml:"overall_pct"`
	Outcome   string             `yaml:"outcome"`
	Friction  core.FrictionPoint `yaml:"friction_point"`
	Modules   []yamlModule       `yaml:"modules"`
	Caveats   []core.Caveat      `yaml:"caveats,omitempty"`
	QuickWins []yamlRec          `yaml:"quick_wins,omitempty"`
}

type yamlModule struct {
	Name       string  `yaml:"name"`
	Title      string  `yaml:"title"`
	Weight     float64 `yaml:"weight"`
	Points     int     `yaml:"points"`
	MaxPoints  int     `yaml:"max_points"`
	Percentage float64 `yaml:"percentage"`
	Outcome    string  `yaml:"outcome"`
	Degraded   bool    `yaml:"degraded,omitempty"`
	Revisions  int     `yaml:"revisions,omitempty"`
}

type yamlRec struct {
	Issue  string `yaml:"issue"`
	Action string `yaml:"action"`
	Impact string `yaml:"impact"`
	Effort string `yaml:"effort"`
}

func (r *Renderer) renderYAML(path string, report *core.Report) error {
	m := yamlManifest{
		RunID:     report.RunID,
		Subject:   report.Subject,
		Website:   report.Website,
		AuditDate: report.AuditDate,
		Overall:   report.OverallPercentage(),
		Outcome:   string(report.OverallOutcome()),
		Friction:  report.Synthesize(),
		Caveats:   report.Caveats,
	}
	for _, mod := range report.Modules {
		m.Modules = append(m.Modules, yamlModule{
			Name:       mod.AgentName,
			Title:      mod.Title,
			Weight:     mod.Weight,
			Points:     mod.ActualPoints(),
			MaxPoints:  mod.MaxPoints(),
			Percentage: mod.Percentage(),
			Outcome:    string(core.OutcomeFor(mod.Percentage(), mod.AgentName)),
			Degraded:   mod.Degraded,
			Revisions:  mod.RevisionCount,
		})
	}
	for _, rec := range report.QuickWins(5) {
		m.QuickWins = append(m.QuickWins, yamlRec{
			Issue:  rec.Issue,
			Action: rec.Action,
			Impact: string(rec.Impact),
			Effort: string(rec.Effort),
		})
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding yaml manifest: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing yaml manifest: %w", err)
	}
	return nil
}
