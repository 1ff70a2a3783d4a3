package mock

import (
	"context"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var (
	_ radar.ExtractionService = (*ExtractionService)(nil)
	_ radar.StorageService    = (*StorageService)(nil)
)

// ExtractionService is a mock implementation of radar.ExtractionService.
type ExtractionService struct {
	CreateExtractionFn   func(ctx context.Context, ex *radar.Extraction) error
	FindExtractionByIDFn func(ctx context.Context, id string) (*radar.Extraction, error)
	FindExtractionsFn    func(ctx context.Context, filter radar.ExtractionFilter) ([]*radar.Extraction, error)
	UpdateExtractionFn   func(ctx context.Context, id string, upd radar.ExtractionUpdate) (*radar.Extraction, error)
	DeleteExtractionFn   func(ctx context.Context, id string) error
	DeleteExtractionsFn  func(ctx context.Context, ids []string) error
}

func (s *ExtractionService) CreateExtraction(ctx context.Context, ex *radar.Extraction) error {
	return s.CreateExtractionFn(ctx, ex)
}

func (s *ExtractionService) FindExtractionByID(ctx context.Context, id string) (*radar.Extraction, error) {
	return s.FindExtractionByIDFn(ctx, id)
}

func (s *ExtractionService) FindExtractions(ctx context.Context, filter radar.ExtractionFilter) ([]*radar.Extraction, error) {
	return s.FindExtractionsFn(ctx, filter)
}

func (s *ExtractionService) UpdateExtraction(ctx context.Context, id string, upd radar.ExtractionUpdate) (*radar.Extraction, error) {
	return s.UpdateExtractionFn(ctx, id, upd)
}

func (s *ExtractionService) DeleteExtraction(ctx context.Context, id string) error {
	return s.DeleteExtractionFn(ctx, id)
}

func (s *ExtractionService) DeleteExtractions(ctx context.Context, ids []string) error {
	return s.DeleteExtractionsFn(ctx, ids)
}

// StorageService is a mock implementation of radar.StorageService.
type StorageService struct {
	UsedBytesFn func(ctx context.Context) (int64, error)
	ClearFn     func(ctx context.Context) error
}

func (s *StorageService) UsedBytes(ctx context.Context) (int64, error) {
	return s.UsedBytesFn(ctx)
}

func (s *StorageService) Clear(ctx context.Context) error {
	return s.ClearFn(ctx)
}
