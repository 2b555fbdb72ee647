package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sitescope/sitescope/internal/adapters/shot"
	"github.com/sitescope/sitescope/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check audit prerequisites",
	Long: `Verify that the environment can run a full audit: configuration is
valid, the run database directory is writable, and screenshot capture
has a headless browser available.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	name     string
	required bool
	run      func(cfg *config.Config) (string, error)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checks := []doctorCheck{
		{"configuration", true, checkConfig},
		{"run database directory", true, checkStateDir},
		{"report output directory", true, checkOutputDir},
		{"headless browser", false, checkBrowser},
		{"analyzer credentials", false, checkAnalyzer},
	}

	fmt.Println("Checking audit prerequisites...")
	fmt.Println()

	requiredOK := true
	for _, check := range checks {
		detail, err := check.run(cfg)
		switch {
		case err == nil:
			fmt.Printf("  %s %s%s\n", paint(styleGood, "+"), check.name, muteDetail(detail))
		case check.required:
			requiredOK = false
			fmt.Printf("  %s %s: %v\n", paint(styleBad, "x"), check.name, err)
		default:
			fmt.Printf("  %s %s: %v (optional)\n", paint(styleWarn, "-"), check.name, err)
		}
	}

	fmt.Println()
	if !requiredOK {
		return fmt.Errorf("required prerequisites missing")
	}
	fmt.Println("Ready to audit.")
	return nil
}

func muteDetail(detail string) string {
	if detail == "" {
		return ""
	}
	return paint(styleMuted, " ("+detail+")")
}

func checkConfig(cfg *config.Config) (string, error) {
	if err := config.NewValidator().Validate(cfg); err != nil {
		return "", err
	}
	return "", nil
}

func checkStateDir(cfg *config.Config) (string, error) {
	return checkWritableDir(filepath.Dir(cfg.State.DBPath))
}

func checkOutputDir(cfg *config.Config) (string, error) {
	return checkWritableDir(cfg.Output.Dir)
}

func checkWritableDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return "", fmt.Errorf("directory not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return dir, nil
}

func checkBrowser(cfg *config.Config) (string, error) {
	if !cfg.Screenshot.Enabled {
		return "screenshots disabled", nil
	}
	if cfg.Screenshot.BrowserPath != "" {
		if path, err := exec.LookPath(cfg.Screenshot.BrowserPath); err == nil {
			return path, nil
		}
	}
	if path, ok := shot.FindBrowser(); ok {
		return path, nil
	}
	return "", fmt.Errorf("no chromium-compatible binary on PATH, screenshots will be skipped")
}

func checkAnalyzer(cfg *config.Config) (string, error) {
	if cfg.Analyzer.APIKey == "" {
		return "", fmt.Errorf("no API key configured, modules run on heuristics only")
	}
	return cfg.Analyzer.Model, nil
}
