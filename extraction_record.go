package radar

import (
	"context"
	"time"
)

// AnalysisStatus is the analysis state of a persisted extraction.
type AnalysisStatus string

// Analysis states.
const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// Extraction is the persisted record of one page capture.
// OriginalText is kept unsanitized and never leaves the device.
type Extraction struct {
	ID               string         `json:"id"`
	URL              string         `json:"url"`
	Title            string         `json:"title"`
	Platform         Platform       `json:"platform"`
	OriginalText     string         `json:"originalText"`
	ContentHash      string         `json:"contentHash,omitempty"`
	Summary          string         `json:"summary"`
	AnalysisStatus   AnalysisStatus `json:"analysisStatus"`
	DemandCount      int            `json:"demandCount"`
	SavedDemandCount int            `json:"savedDemandCount"`
	Truncated        bool           `json:"truncated"`
	TruncatedFields  []string       `json:"truncatedFields,omitempty"`
	OriginalLength   int            `json:"originalLength,omitempty"`
	CapturedAt       time.Time      `json:"capturedAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Validate returns an error if the extraction contains invalid fields.
func (e *Extraction) Validate() error {
	if e.URL == "" {
		return Errorf(EINVALID, "extraction URL required")
	}
	switch e.AnalysisStatus {
	case AnalysisPending, AnalysisCompleted, AnalysisFailed:
	default:
		return Errorf(EINVALID, "invalid analysis status %q", e.AnalysisStatus)
	}
	return nil
}

// NewExtraction derives an extraction record from an extraction result.
// The stored text is the unsanitized composed text, truncated to
// MaxContentLength.
func NewExtraction(tab Tab, result *ExtractionResult, status AnalysisStatus) *Extraction {
	text, truncated, originalLength := Truncate(result.Text(), MaxContentLength)

	title := result.Content.Title
	if title == "" {
		title = tab.Title
	}
	url := result.Content.Metadata.URL
	if url == "" {
		url = tab.URL
	}

	ex := &Extraction{
		URL:            url,
		Title:          title,
		Platform:       result.Platform,
		OriginalText:   text,
		AnalysisStatus: status,
		Truncated:      truncated || result.Truncated,
		CapturedAt:     time.Now().UTC(),
	}
	if ex.Truncated {
		ex.TruncatedFields = []string{"originalText"}
		ex.OriginalLength = originalLength
		if result.OriginalLength > ex.OriginalLength {
			ex.OriginalLength = result.OriginalLength
		}
	}
	return ex
}

// ExtractionService represents a service for managing extractions.
type ExtractionService interface {
	// CreateExtraction creates a new extraction.
	CreateExtraction(ctx context.Context, ex *Extraction) error

	// FindExtractionByID retrieves an extraction by ID.
	// Returns ENOTFOUND if the extraction does not exist.
	FindExtractionByID(ctx context.Context, id string) (*Extraction, error)

	// FindExtractions retrieves extractions matching the filter.
	FindExtractions(ctx context.Context, filter ExtractionFilter) ([]*Extraction, error)

	// UpdateExtraction updates an existing extraction.
	// Returns ENOTFOUND if the extraction does not exist.
	UpdateExtraction(ctx context.Context, id string, upd ExtractionUpdate) (*Extraction, error)

	// DeleteExtraction permanently removes an extraction and its demands.
	// Returns ENOTFOUND if the extraction does not exist.
	DeleteExtraction(ctx context.Context, id string) error

	// DeleteExtractions removes all extractions with the given IDs.
	DeleteExtractions(ctx context.Context, ids []string) error
}

// ExtractionFilter represents a filter for FindExtractions.
type ExtractionFilter struct {
	ID             *string         `json:"id"`
	URL            *string         `json:"url"`
	AnalysisStatus *AnalysisStatus `json:"analysisStatus"`

	// Oldest returns the oldest records first instead of the newest.
	Oldest bool `json:"oldest"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ExtractionUpdate represents fields that can be updated on an extraction.
type ExtractionUpdate struct {
	Summary          *string         `json:"summary"`
	AnalysisStatus   *AnalysisStatus `json:"analysisStatus"`
	DemandCount      *int            `json:"demandCount"`
	SavedDemandCount *int            `json:"savedDemandCount"`
}

// StorageUsage reports how much local storage is in use, in bytes.
type StorageUsage struct {
	Used       int64   `json:"used"`
	Limit      int64   `json:"limit"`
	Percentage float64 `json:"percentage"`
}

// StorageService reports and resets local storage.
type StorageService interface {
	// UsedBytes returns the number of bytes held by stored records.
	UsedBytes(ctx context.Context) (int64, error)

	// Clear removes every extraction and demand. Configuration is kept.
	Clear(ctx context.Context) error
}
