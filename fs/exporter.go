package fs

import (
	"context"
	"path/filepath"
	"time"

	"github.com/chen893/radar"
)

// Ensure Exporter implements radar.Exporter at compile time.
var _ radar.Exporter = (*Exporter)(nil)

// Exporter dumps stored records to a directory.
type Exporter struct {
	Config      radar.ConfigService
	Extractions radar.ExtractionService
	Demands     radar.DemandService
}

// NewExporter creates a new Exporter.
func NewExporter(config radar.ConfigService, extractions radar.ExtractionService, demands radar.DemandService) *Exporter {
	return &Exporter{
		Config:      config,
		Extractions: extractions,
		Demands:     demands,
	}
}

// Bundle collects the configuration, without its API key, and every
// extraction and demand.
func (e *Exporter) Bundle(ctx context.Context) (*radar.ExportBundle, error) {
	cfg, err := e.Config.Config(ctx)
	if err != nil {
		return nil, err
	}
	extractions, err := e.Extractions.FindExtractions(ctx, radar.ExtractionFilter{})
	if err != nil {
		return nil, err
	}
	demands, err := e.Demands.FindDemands(ctx, radar.DemandFilter{})
	if err != nil {
		return nil, err
	}

	redacted := cfg.Redacted()
	redacted.LLM.APIKey = ""
	if extractions == nil {
		extractions = []*radar.Extraction{}
	}
	if demands == nil {
		demands = []*radar.Demand{}
	}

	return &radar.ExportBundle{
		Version:     radar.ExportVersion,
		ExportedAt:  time.Now().UTC(),
		Config:      redacted,
		Extractions: extractions,
		Demands:     demands,
	}, nil
}

// Export writes the bundle and one Markdown file per demand to dir. The
// directory is replaced only once every file has been written.
func (e *Exporter) Export(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, radar.Errorf(radar.EINVALID, "export directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}

	bundle, err := e.Bundle(ctx)
	if err != nil {
		return 0, err
	}

	store := NewFileStore(filepath.Dir(abs), filepath.Base(abs))
	if err := store.SaveBundle(bundle); err != nil {
		_ = store.Abort()
		return 0, err
	}
	for _, d := range bundle.Demands {
		if err := store.SaveDemand(ctx, d); err != nil {
			_ = store.Abort()
			return 0, err
		}
	}
	if err := store.Commit(); err != nil {
		_ = store.Abort()
		return 0, err
	}
	return len(bundle.Demands), nil
}
