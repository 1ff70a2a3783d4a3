package fs_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/fs"
	"github.com/chen893/radar/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExporter(demands []*radar.Demand) *fs.Exporter {
	return fs.NewExporter(
		&mock.ConfigService{
			ConfigFn: func(context.Context) (*radar.Config, error) {
				return &radar.Config{
					LLM:          radar.LLMConfig{Provider: radar.ProviderGemini, APIKey: "secret-key"},
					SystemPrompt: "custom",
				}, nil
			},
		},
		&mock.ExtractionService{
			FindExtractionsFn: func(context.Context, radar.ExtractionFilter) ([]*radar.Extraction, error) {
				return []*radar.Extraction{{ID: "ex", URL: "https://www.reddit.com/r/x/"}}, nil
			},
		},
		&mock.DemandService{
			FindDemandsFn: func(context.Context, radar.DemandFilter) ([]*radar.Demand, error) {
				return demands, nil
			},
		},
	)
}

func TestExporter_Bundle(t *testing.T) {
	t.Parallel()

	t.Run("never includes the API key", func(t *testing.T) {
		t.Parallel()

		bundle, err := newExporter(nil).Bundle(context.Background())

		require.NoError(t, err)
		assert.Empty(t, bundle.Config.LLM.APIKey)
		assert.Equal(t, radar.ProviderGemini, bundle.Config.LLM.Provider)
		assert.Equal(t, radar.ExportVersion, bundle.Version)
		assert.Len(t, bundle.Extractions, 1)
		assert.NotNil(t, bundle.Demands)
	})

	t.Run("returns storage errors", func(t *testing.T) {
		t.Parallel()

		e := newExporter(nil)
		e.Demands = &mock.DemandService{
			FindDemandsFn: func(context.Context, radar.DemandFilter) ([]*radar.Demand, error) {
				return nil, errors.New("disk I/O error")
			},
		}

		_, err := e.Bundle(context.Background())

		require.Error(t, err)
	})
}

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	t.Run("writes the bundle and one file per demand", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		e := newExporter([]*radar.Demand{testDemand("aaaaaaaa", "First idea"), testDemand("bbbbbbbb", "Second idea")})

		n, err := e.Export(context.Background(), dir)

		require.NoError(t, err)
		assert.Equal(t, 2, n)

		data, err := os.ReadFile(filepath.Join(dir, fs.BundleFile))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "secret-key")
		var bundle radar.ExportBundle
		require.NoError(t, json.Unmarshal(data, &bundle))
		assert.Len(t, bundle.Demands, 2)

		entries, err := os.ReadDir(filepath.Join(dir, "demands"))
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("leaves no output when a demand cannot be written", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		dir := filepath.Join(base, "out")
		e := newExporter([]*radar.Demand{testDemand("aaaaaaaa", "ok"), testDemand("", "no id")})

		_, err := e.Export(context.Background(), dir)

		require.Error(t, err)
		_, err = os.Stat(dir)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(dir + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("requires a directory", func(t *testing.T) {
		t.Parallel()

		_, err := newExporter(nil).Export(context.Background(), "")

		assert.Equal(t, radar.EINVALID, radar.ErrorCode(err))
	})
}
