package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/chen893/radar"
	"github.com/chen893/radar/bridge"
	"github.com/chen893/radar/dedup"
	"github.com/chen893/radar/fs"
	"github.com/chen893/radar/gemini"
	"github.com/chen893/radar/goquery"
	"github.com/chen893/radar/htmltomarkdown"
	radarhttp "github.com/chen893/radar/http"
	"github.com/chen893/radar/openai"
	"github.com/chen893/radar/page"
	"github.com/chen893/radar/readability"
	"github.com/chen893/radar/rod"
	radarslog "github.com/chen893/radar/slog"
	"github.com/chen893/radar/sqlite"
	"github.com/chen893/radar/task"
	"github.com/chen893/radar/trafilatura"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Fetcher overrides the page loader, for end-to-end testing.
	Fetcher radar.Fetcher

	// Analyzers overrides the model providers, for end-to-end testing.
	Analyzers radar.AnalyzerFactory

	// TokenCounter overrides the local Gemini tokenizer.
	TokenCounter radar.TokenCounter
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("radar"),
		kong.Description("Find product opportunities in online discussions."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'radar --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set RADAR_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	configs := sqlite.NewConfigService(m.DB)
	cfg, err := seedConfig(ctx, configs, cli.Config, os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	demands := sqlite.NewDemandService(m.DB)
	extractions := sqlite.NewExtractionService(m.DB)

	analyzers := m.Analyzers
	if analyzers == nil {
		analyzers = newAnalyzerFactory()
	}
	analyzers = radarslog.NewLoggingAnalyzerFactory(analyzers, logger)

	o := task.New()
	o.Extractions = extractions
	o.Demands = demands
	o.Storage = sqlite.NewStorageService(m.DB)
	o.Config = configs
	o.Analyzers = analyzers
	o.Logger = logger
	o.TokenCounter = m.TokenCounter
	if o.TokenCounter == nil {
		o.TokenCounter = gemini.NewPromptMeter(tokenizerModel)
	}
	o.ApplyConfig(cfg)

	bus := bridge.NewBus(logger)
	o.Broadcaster = bus

	deps.Orchestrator = o
	deps.Demands = demands
	deps.Extractions = extractions
	deps.Config = configs
	deps.Exporter = fs.NewExporter(configs, extractions, demands)
	deps.Dedup = dedup.NewService(demands)
	deps.Bus = bus
	deps.Analyzers = analyzers

	bridge.Register(bus, &bridge.Services{
		Orchestrator: o,
		Demands:      demands,
		Extractions:  extractions,
		Config:       configs,
		Exporter:     deps.Exporter,
		Dedup:        deps.Dedup,
	})

	// Only commands that read live pages start a browser.
	var static bool
	switch cmd {
	case "analyze":
		static = cli.Analyze.Static || cli.Analyze.Snapshot != ""
	case "save":
		static = cli.Save.Static || cli.Save.Snapshot != ""
	case "stream":
		static = cli.Stream.Static || cli.Stream.Snapshot != ""
	case "serve":
		static = cli.Serve.Static
	default:
		return kongCtx.Run(deps)
	}

	fetcher := m.Fetcher
	if fetcher == nil {
		if static {
			fetcher = radarhttp.NewFetcher(radarhttp.WithTimeout(cli.PageTimeout))
		} else {
			f, err := rod.NewFetcher(cli.fetcherOptions(), cli.browserOptions()...)
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or pass --static")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = f
		}
	}
	fetcher = radarslog.NewLoggingFetcher(fetcher, logger)
	defer fetcher.Close()

	generic := goquery.NewGenericAdapter(htmltomarkdown.NewConverter(), trafilatura.NewExtractor(), readability.NewExtractor())
	registry := radarslog.NewLoggingRegistry(goquery.NewDefaultRegistry(generic), logger)

	pages := page.NewContext(fetcher, registry)
	pages.Limiter = page.NewHostLimiter(hostRate, hostBurst)
	pages.Logger = logger

	deps.Pages = radarslog.NewLoggingPageContext(pages, logger)
	o.Pages = deps.Pages
	o.Registry = registry

	return kongCtx.Run(deps)
}

func (c *CLI) fetcherOptions() []rod.Option {
	opts := []rod.Option{rod.WithStealth(!c.NoStealth)}
	if c.PageTimeout > 0 {
		opts = append(opts, rod.WithTimeout(c.PageTimeout))
	}
	return opts
}

func (c *CLI) browserOptions() []rod.ManagerOption {
	opts := []rod.ManagerOption{rod.WithHeadless(!c.ShowBrowser)}
	if c.ChromeProfile != "" {
		opts = append(opts, rod.WithUserDataDir(c.ChromeProfile))
	}
	return opts
}

// Politeness toward a single host when loading pages.
const (
	hostRate  = 1.0
	hostBurst = 2
)

// modelRate bounds model calls across all tasks and batch workers.
const modelRate = 2.0

// tokenizerModel is the local tokenizer that measures prompts against the
// token budget.
const tokenizerModel = "gemini-2.5-flash"

// newAnalyzerFactory builds analyzers for the configured provider. Each
// provider shares one rate limiter across every analyzer it builds.
func newAnalyzerFactory() radar.AnalyzerFactory {
	g := &gemini.Factory{Limiter: rate.NewLimiter(rate.Limit(modelRate), 1)}
	o := &openai.Factory{Limiter: rate.NewLimiter(rate.Limit(modelRate), 1)}
	return func(cfg radar.LLMConfig) (radar.Analyzer, error) {
		switch cfg.Provider {
		case radar.ProviderGemini, "":
			return g.New(cfg)
		case radar.ProviderOpenAI:
			return o.New(cfg)
		}
		return nil, radar.Errorf(radar.EINVALID, "unknown model provider %q", cfg.Provider)
	}
}

func defaultDBPath() string {
	if path := os.Getenv("RADAR_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "radar.db"
	}
	dir := filepath.Join(home, ".radar")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "radar.db")
}
