package radar

import (
	"context"
	"time"
)

// ExportVersion is the format version of ExportBundle.
const ExportVersion = 1

// ExportBundle is a full dump of user data. The API key is never included.
type ExportBundle struct {
	Version     int           `json:"version"`
	ExportedAt  time.Time     `json:"exportedAt"`
	Config      Config        `json:"config"`
	Extractions []*Extraction `json:"extractions"`
	Demands     []*Demand     `json:"demands"`
}

// Exporter moves user data out of local storage.
type Exporter interface {
	// Bundle collects every record into an ExportBundle.
	Bundle(ctx context.Context) (*ExportBundle, error)

	// Export writes the bundle and one Markdown file per demand to dir
	// and returns the number of demands written.
	Export(ctx context.Context, dir string) (int, error)
}
