package mock

import (
	"context"

	"github.com/chen893/radar"
)

var _ radar.ConfigService = (*ConfigService)(nil)

// ConfigService is a mock implementation of radar.ConfigService.
type ConfigService struct {
	ConfigFn       func(ctx context.Context) (*radar.Config, error)
	UpdateConfigFn func(ctx context.Context, cfg *radar.Config) error
}

func (s *ConfigService) Config(ctx context.Context) (*radar.Config, error) {
	return s.ConfigFn(ctx)
}

func (s *ConfigService) UpdateConfig(ctx context.Context, cfg *radar.Config) error {
	return s.UpdateConfigFn(ctx, cfg)
}
