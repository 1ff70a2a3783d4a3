package mock

import (
	"context"

	"github.com/chen893/radar"
)

var _ radar.Exporter = (*Exporter)(nil)

// Exporter is a mock implementation of radar.Exporter.
type Exporter struct {
	BundleFn func(ctx context.Context) (*radar.ExportBundle, error)
	ExportFn func(ctx context.Context, dir string) (int, error)
}

func (e *Exporter) Bundle(ctx context.Context) (*radar.ExportBundle, error) {
	return e.BundleFn(ctx)
}

func (e *Exporter) Export(ctx context.Context, dir string) (int, error) {
	return e.ExportFn(ctx, dir)
}
