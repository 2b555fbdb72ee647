package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sitescope/sitescope/internal/adapters/collect"
	"github.com/sitescope/sitescope/internal/adapters/llm"
	"github.com/sitescope/sitescope/internal/adapters/render"
	"github.com/sitescope/sitescope/internal/adapters/shot"
	"github.com/sitescope/sitescope/internal/agents"
	"github.com/sitescope/sitescope/internal/config"
	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/events"
	"github.com/sitescope/sitescope/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run [website-url]",
	Short: "Run a full website audit",
	Long: `Crawl the website, execute every enabled audit module in dependency
order, and write the report artifacts.

The website can be given as an argument or via config/environment.

Examples:
  # Audit a site with defaults
  sitescope run https://example.com --subject "Example Inc"

  # Shallow crawl without screenshots
  sitescope run https://example.com --max-pages 10 --no-screenshots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

var (
	runSubject      string
	runIndustry     string
	runOutputDir    string
	runMaxPages     int
	runNoShots      bool
	runDisable      []string
	runCycleCeiling int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSubject, "subject", "", "Company or product under audit")
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "Industry of the audit subject")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "Report output directory")
	runCmd.Flags().IntVar(&runMaxPages, "max-pages", 0, "Crawl page limit")
	runCmd.Flags().BoolVar(&runNoShots, "no-screenshots", false, "Skip screenshot capture")
	runCmd.Flags().StringSliceVar(&runDisable, "disable", nil, "Audit modules to skip")
	runCmd.Flags().IntVar(&runCycleCeiling, "cycle-ceiling", 0, "Maximum revision cycles per module")

	_ = viper.BindPFlag("audit.subject", runCmd.Flags().Lookup("subject"))
	_ = viper.BindPFlag("audit.industry", runCmd.Flags().Lookup("industry"))
	_ = viper.BindPFlag("output.dir", runCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("collect.max_pages", runCmd.Flags().Lookup("max-pages"))
	_ = viper.BindPFlag("engine.disabled_units", runCmd.Flags().Lookup("disable"))
	_ = viper.BindPFlag("engine.cycle_ceiling", runCmd.Flags().Lookup("cycle-ceiling"))
}

func runAudit(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		viper.Set("audit.website", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.NewValidator().ValidateForRun(cfg); err != nil {
		return err
	}

	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer := llm.New(llm.Config{
		BaseURL:     cfg.Analyzer.BaseURL,
		APIKey:      cfg.Analyzer.APIKey,
		Model:       cfg.Analyzer.Model,
		MaxTokens:   cfg.Analyzer.MaxTokens,
		Temperature: cfg.Analyzer.Temperature,
		Timeout:     durationOr(cfg.Analyzer.Timeout, 2*time.Minute),
	}, log)
	if !analyzer.Available() {
		log.Warn("analyzer not configured, modules run on heuristics only")
	}

	registry := service.NewRegistry()
	if err := agents.RegisterAll(registry, analyzer, log, cfg.Engine.DisabledUnits...); err != nil {
		return err
	}

	collector := collect.New(log,
		collect.WithUserAgent(cfg.Collect.UserAgent),
		collect.WithPageTimeout(durationOr(cfg.Collect.PageTimeout, 20*time.Second)))

	var capturer core.Capturer
	screenshots := cfg.Screenshot.Enabled && !runNoShots
	if screenshots {
		capturer = shot.New(cfg.Screenshot.Dir, log,
			shot.WithBrowserPath(cfg.Screenshot.BrowserPath),
			shot.WithTimeout(durationOr(cfg.Screenshot.Timeout, 30*time.Second)))
	}

	renderer, err := render.New(cfg.Output.Dir, cfg.Output.Formats, log)
	if err != nil {
		return err
	}

	runStore, err := openRunStore(cfg)
	if err != nil {
		return err
	}
	defer runStore.Close()

	bus := events.New(64)
	var progressDone <-chan struct{}
	if !quiet {
		progressDone = streamProgress(bus)
	}

	engine := service.NewEngine(service.Options{
		AgentTimeout: cfg.Engine.AgentTimeoutDuration(),
		CycleCeiling: cfg.Engine.CycleCeiling,
		Gates: service.Gates{
			MinFindingsLength:  cfg.Engine.Gates.MinFindingsLength,
			MinScoreItems:      cfg.Engine.Gates.MinScoreItems,
			MinRecommendations: cfg.Engine.Gates.MinRecommendations,
			MaxEmptyNotes:      cfg.Engine.Gates.MaxEmptyNotes,
		},
		Screenshots: screenshots,
	}, service.EngineDeps{
		Registry:  registry,
		Collector: collector,
		Capturer:  capturer,
		Renderer:  renderer,
		RunStore:  runStore,
		Bus:       bus,
		Logger:    log,
	})

	result, err := engine.Run(ctx, cfg.ToCore(time.Now().Format("2006-01-02")))

	bus.Close()
	if progressDone != nil {
		<-progressDone
	}
	if err != nil {
		return err
	}

	fmt.Print(renderRunSummary(result))
	return nil
}
