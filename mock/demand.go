package mock

import (
	"context"

	"github.com/chen893/radar"
)

var _ radar.DemandService = (*DemandService)(nil)

// DemandService is a mock implementation of radar.DemandService.
type DemandService struct {
	CreateDemandsFn  func(ctx context.Context, demands []*radar.Demand) error
	FindDemandByIDFn func(ctx context.Context, id string) (*radar.Demand, error)
	FindDemandsFn    func(ctx context.Context, filter radar.DemandFilter) ([]*radar.Demand, error)
	UpdateDemandFn   func(ctx context.Context, id string, upd radar.DemandUpdate) (*radar.Demand, error)
	DeleteDemandFn   func(ctx context.Context, id string) error
	DeleteDemandsFn  func(ctx context.Context, ids []string) error
}

func (s *DemandService) CreateDemands(ctx context.Context, demands []*radar.Demand) error {
	return s.CreateDemandsFn(ctx, demands)
}

func (s *DemandService) FindDemandByID(ctx context.Context, id string) (*radar.Demand, error) {
	return s.FindDemandByIDFn(ctx, id)
}

func (s *DemandService) FindDemands(ctx context.Context, filter radar.DemandFilter) ([]*radar.Demand, error) {
	return s.FindDemandsFn(ctx, filter)
}

func (s *DemandService) UpdateDemand(ctx context.Context, id string, upd radar.DemandUpdate) (*radar.Demand, error) {
	return s.UpdateDemandFn(ctx, id, upd)
}

func (s *DemandService) DeleteDemand(ctx context.Context, id string) error {
	return s.DeleteDemandFn(ctx, id)
}

func (s *DemandService) DeleteDemands(ctx context.Context, ids []string) error {
	return s.DeleteDemandsFn(ctx, ids)
}
