package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var _ radar.ConfigService = (*ConfigService)(nil)

// ConfigService implements radar.ConfigService as a single JSON row.
type ConfigService struct {
	db *DB
}

// NewConfigService creates a new ConfigService.
func NewConfigService(db *DB) *ConfigService {
	return &ConfigService{db: db}
}

// Config returns the stored configuration, or the zero Config if none has
// been saved.
func (s *ConfigService) Config(ctx context.Context) (*radar.Config, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM config WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return &radar.Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg radar.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// UpdateConfig replaces the stored configuration.
func (s *ConfigService) UpdateConfig(ctx context.Context, cfg *radar.Config) error {
	if cfg == nil {
		return radar.Errorf(radar.EINVALID, "config required")
	}
	switch cfg.LLM.Provider {
	case "", radar.ProviderGemini, radar.ProviderOpenAI:
	default:
		return radar.Errorf(radar.EINVALID, "unknown LLM provider %q", cfg.LLM.Provider)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO config (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(data), formatTime(time.Now()))
	return err
}
