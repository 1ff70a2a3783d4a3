package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/chen893/radar"
	"github.com/chen893/radar/bridge"
	"github.com/chen893/radar/dedup"
	"github.com/chen893/radar/task"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx          context.Context
	Stdout       io.Writer
	Stderr       io.Writer
	Logger       *slog.Logger
	Orchestrator *task.Orchestrator
	Demands      radar.DemandService
	Extractions  radar.ExtractionService
	Config       radar.ConfigService
	Exporter     radar.Exporter
	Dedup        *dedup.Service
	Bus          *bridge.Bus
	Pages        radar.PageContext
	Analyzers    radar.AnalyzerFactory
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Debug  bool   `help:"Log debug output to stderr"`
	Config string `name:"config" env:"RADAR_CONFIG" type:"path" help:"YAML file seeding the stored configuration"`

	ChromeProfile string        `name:"chrome-profile" env:"RADAR_CHROME_PROFILE" type:"path" help:"Chrome profile directory, for sites that need a login"`
	ShowBrowser   bool          `help:"Run Chrome with a visible window"`
	NoStealth     bool          `help:"Open pages without bot-detection evasions"`
	PageTimeout   time.Duration `default:"30s" help:"Time allowed for a page to load"`

	Analyze     AnalyzeCmd     `cmd:"" help:"Extract and analyze a page"`
	Save        SaveCmd        `cmd:"" help:"Save a page for later analysis"`
	Batch       BatchCmd       `cmd:"" help:"Analyze saved pages"`
	Stream      StreamCmd      `cmd:"" help:"Stream a free-form opportunity brief for a page"`
	Serve       ServeCmd       `cmd:"" help:"Serve the message bridge over HTTP"`
	Demands     DemandsCmd     `cmd:"" help:"Manage saved demands"`
	Extractions ExtractionsCmd `cmd:"" help:"Manage saved pages"`
	Dedup       DedupCmd       `cmd:"" help:"Find and merge duplicate demands"`
	Usage       UsageCmd       `cmd:"" help:"Show storage usage"`
	Export      ExportCmd      `cmd:"" help:"Export all data to a directory"`
	Clear       ClearCmd       `cmd:"" help:"Delete all pages and demands"`
	Settings    SettingsCmd    `cmd:"" help:"Show or change settings"`
	TestLLM     TestLLMCmd     `cmd:"" name:"test-llm" help:"Check the model provider accepts the stored key"`
}

// PageFlags select how pages are loaded.
type PageFlags struct {
	Static   bool   `help:"Load pages over plain HTTP instead of a browser"`
	Snapshot string `short:"s" type:"existingfile" help:"Read the page from a saved HTML file instead of loading it"`
	Title    string `help:"Title to use when the page has none"`
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	URL  string `arg:"" help:"Page URL"`
	Keep bool   `short:"k" help:"Save every proposed demand"`
	PageFlags
}

// SaveCmd is the "save" subcommand.
type SaveCmd struct {
	URL string `arg:"" help:"Page URL"`
	PageFlags
}

// BatchCmd is the "batch" subcommand.
type BatchCmd struct {
	Size    int `default:"20" help:"Maximum pages analyzed in one run"`
	Workers int `default:"3" help:"Concurrent model calls"`
}

// StreamCmd is the "stream" subcommand.
type StreamCmd struct {
	URL string `arg:"" help:"Page URL"`
	PageFlags
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr   string `default:"127.0.0.1:8377" help:"Listen address"`
	Static bool   `help:"Load pages over plain HTTP instead of a browser"`
}

// DemandsCmd groups the demand subcommands.
type DemandsCmd struct {
	List   DemandsListCmd   `cmd:"" default:"withargs" help:"List demands"`
	Search DemandsSearchCmd `cmd:"" help:"Search demands"`
	Show   DemandsShowCmd   `cmd:"" help:"Show one demand"`
	Star   DemandsStarCmd   `cmd:"" help:"Star or unstar a demand"`
	Delete DemandsDeleteCmd `cmd:"" help:"Delete a demand"`
}

// DemandsListCmd is the "demands list" subcommand.
type DemandsListCmd struct {
	Starred  bool `help:"Only starred demands"`
	Archived bool `help:"Include archived demands"`
	Limit    int  `short:"n" default:"50" help:"Maximum demands shown"`
}

// DemandsSearchCmd is the "demands search" subcommand.
type DemandsSearchCmd struct {
	Query string `arg:"" help:"Text to look for in titles, descriptions and pain points"`
	Limit int    `short:"n" default:"50" help:"Maximum demands shown"`
}

// DemandsShowCmd is the "demands show" subcommand.
type DemandsShowCmd struct {
	ID string `arg:"" help:"Demand ID"`
}

// DemandsStarCmd is the "demands star" subcommand.
type DemandsStarCmd struct {
	ID    string `arg:"" help:"Demand ID"`
	Unset bool   `help:"Remove the star"`
}

// DemandsDeleteCmd is the "demands delete" subcommand.
type DemandsDeleteCmd struct {
	ID string `arg:"" help:"Demand ID"`
}

// ExtractionsCmd groups the extraction subcommands.
type ExtractionsCmd struct {
	List    ExtractionsListCmd    `cmd:"" default:"withargs" help:"List saved pages"`
	Analyze ExtractionsAnalyzeCmd `cmd:"" help:"Analyze one saved page"`
	Delete  ExtractionsDeleteCmd  `cmd:"" help:"Delete a saved page and its demands"`
}

// ExtractionsListCmd is the "extractions list" subcommand.
type ExtractionsListCmd struct {
	Status string `help:"Only pages with this analysis status"`
	Limit  int    `short:"n" default:"50" help:"Maximum pages shown"`
}

// ExtractionsAnalyzeCmd is the "extractions analyze" subcommand.
type ExtractionsAnalyzeCmd struct {
	ID string `arg:"" help:"Extraction ID"`
}

// ExtractionsDeleteCmd is the "extractions delete" subcommand.
type ExtractionsDeleteCmd struct {
	ID string `arg:"" help:"Extraction ID"`
}

// DedupCmd is the "dedup" subcommand.
type DedupCmd struct {
	Threshold float64 `default:"0.6" help:"Similarity above which demands are duplicates"`
	Apply     bool    `help:"Merge every group into its first demand"`
}

// UsageCmd is the "usage" subcommand.
type UsageCmd struct{}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Dir string `arg:"" type:"path" help:"Output directory; replaced if it exists"`
}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Force bool `help:"Confirm deletion"`
}

// SettingsCmd groups the settings subcommands.
type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" default:"withargs" help:"Show settings with the API key masked"`
	Set  SettingsSetCmd  `cmd:"" help:"Change settings"`
}

// SettingsShowCmd is the "settings show" subcommand.
type SettingsShowCmd struct{}

// SettingsSetCmd is the "settings set" subcommand.
type SettingsSetCmd struct {
	Provider  string   `help:"Model provider (gemini or openai)"`
	APIKey    string   `name:"api-key" help:"Provider API key"`
	Model     string   `help:"Model name"`
	BaseURL   string   `name:"base-url" help:"Provider endpoint"`
	Prompt    string   `type:"existingfile" help:"File holding a custom system prompt"`
	Authorize []string `help:"Site pattern to allow (repeatable)"`
	Block     []string `help:"Site pattern to block (repeatable)"`
}

// TestLLMCmd is the "test-llm" subcommand.
type TestLLMCmd struct{}
