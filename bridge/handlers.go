package bridge

import (
	"context"
	"encoding/json"

	"github.com/chen893/radar"
	"github.com/chen893/radar/dedup"
	"github.com/chen893/radar/task"
)

// Services holds the components the command handlers call into.
type Services struct {
	Orchestrator *task.Orchestrator
	Demands      radar.DemandService
	Extractions  radar.ExtractionService
	Config       radar.ConfigService
	Exporter     radar.Exporter
	Dedup        *dedup.Service
}

// Payloads of commands that take more than a bare record.
type (
	idRequest struct {
		ID string `json:"id"`
	}

	urlRequest struct {
		URL string `json:"url"`
	}

	saveDemandsRequest struct {
		ExtractionID string                  `json:"extractionId"`
		Demands      []radar.DemandCandidate `json:"demands"`
	}

	searchRequest struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}

	updateDemandRequest struct {
		ID     string             `json:"id"`
		Update radar.DemandUpdate `json:"update"`
	}

	dedupAnalyzeRequest struct {
		Threshold float64 `json:"threshold"`
	}

	dedupConfirmRequest struct {
		KeepID       string   `json:"keepId"`
		DuplicateIDs []string `json:"duplicateIds"`
	}
)

// Register installs a handler on bus for every command.
func Register(bus *Bus, s *Services) {
	o := s.Orchestrator

	bus.Handle(radar.MsgAnalyzeCurrentPage, func(ctx context.Context, payload json.RawMessage) (any, error) {
		tab, err := decode[radar.Tab](payload)
		if err != nil {
			return nil, err
		}
		return result(o.AnalyzeCurrentPage(ctx, tab))
	})

	bus.Handle(radar.MsgQuickSave, func(ctx context.Context, payload json.RawMessage) (any, error) {
		tab, err := decode[radar.Tab](payload)
		if err != nil {
			return nil, err
		}
		return result(o.QuickSave(ctx, tab))
	})

	bus.Handle(radar.MsgBatchAnalyzeStart, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return result(o.BatchAnalyze(ctx))
	})

	bus.Handle(radar.MsgAnalyzeExtraction, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return result(o.AnalyzeExtraction(ctx, req.ID))
	})

	bus.Handle(radar.MsgTestLLMConnection, func(ctx context.Context, payload json.RawMessage) (any, error) {
		var cfg *radar.LLMConfig
		if len(payload) > 0 && string(payload) != "null" {
			c, err := decode[radar.LLMConfig](payload)
			if err != nil {
				return nil, err
			}
			if c.APIKey == "" || c.APIKey == redactedKey {
				stored, err := s.Config.Config(ctx)
				if err != nil {
					return nil, err
				}
				c.APIKey = stored.LLM.APIKey
			}
			cfg = &c
		}
		if err := o.TestConnection(ctx, cfg); err != nil {
			return nil, err
		}
		return map[string]bool{"connected": true}, nil
	})

	bus.Handle(radar.MsgGetConfig, func(ctx context.Context, _ json.RawMessage) (any, error) {
		cfg, err := s.Config.Config(ctx)
		if err != nil {
			return nil, err
		}
		return cfg.Redacted(), nil
	})

	bus.Handle(radar.MsgUpdateConfig, func(ctx context.Context, payload json.RawMessage) (any, error) {
		cfg, err := decode[radar.Config](payload)
		if err != nil {
			return nil, err
		}
		// A config read through get-config comes back with the key masked.
		if cfg.LLM.APIKey == redactedKey {
			stored, err := s.Config.Config(ctx)
			if err != nil {
				return nil, err
			}
			cfg.LLM.APIKey = stored.LLM.APIKey
		}
		if err := o.UpdateConfig(ctx, &cfg); err != nil {
			return nil, err
		}
		return cfg.Redacted(), nil
	})

	bus.Handle(radar.MsgSaveDemands, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decode[saveDemandsRequest](payload)
		if err != nil {
			return nil, err
		}
		return o.SaveDemands(ctx, req.ExtractionID, req.Demands)
	})

	bus.Handle(radar.MsgGetDemands, func(ctx context.Context, payload json.RawMessage) (any, error) {
		filter, err := decode[radar.DemandFilter](payload)
		if err != nil {
			return nil, err
		}
		return s.Demands.FindDemands(ctx, filter)
	})

	bus.Handle(radar.MsgGetDemand, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return result(s.Demands.FindDemandByID(ctx, req.ID))
	})

	bus.Handle(radar.MsgSearchDemands, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decode[searchRequest](payload)
		if err != nil {
			return nil, err
		}
		return s.Demands.FindDemands(ctx, radar.DemandFilter{Query: req.Query, Limit: req.Limit})
	})

	bus.Handle(radar.MsgUpdateDemand, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decode[updateDemandRequest](payload)
		if err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, radar.Errorf(radar.EINVALID, "id required")
		}
		return result(s.Demands.UpdateDemand(ctx, req.ID, req.Update))
	})

	bus.Handle(radar.MsgDeleteDemand, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return nil, s.Demands.DeleteDemand(ctx, req.ID)
	})

	bus.Handle(radar.MsgGetExtractions, func(ctx context.Context, payload json.RawMessage) (any, error) {
		filter, err := decode[radar.ExtractionFilter](payload)
		if err != nil {
			return nil, err
		}
		return s.Extractions.FindExtractions(ctx, filter)
	})

	bus.Handle(radar.MsgGetExtraction, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return result(s.Extractions.FindExtractionByID(ctx, req.ID))
	})

	bus.Handle(radar.MsgDeleteExtraction, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return nil, s.Extractions.DeleteExtraction(ctx, req.ID)
	})

	bus.Handle(radar.MsgGetStorageUsage, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return o.StorageUsage(ctx)
	})

	bus.Handle(radar.MsgExportData, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return result(s.Exporter.Bundle(ctx))
	})

	bus.Handle(radar.MsgClearData, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, o.ClearData(ctx)
	})

	bus.Handle(radar.MsgDedupAnalyze, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decode[dedupAnalyzeRequest](payload)
		if err != nil {
			return nil, err
		}
		threshold := req.Threshold
		if threshold <= 0 {
			threshold = dedup.DefaultThreshold
		}
		groups, err := s.Dedup.Analyze(ctx, threshold)
		if err != nil {
			return nil, err
		}
		if groups == nil {
			groups = []dedup.Group{}
		}
		return groups, nil
	})

	bus.Handle(radar.MsgDedupConfirm, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decode[dedupConfirmRequest](payload)
		if err != nil {
			return nil, err
		}
		return result(s.Dedup.Confirm(ctx, req.KeepID, req.DuplicateIDs))
	})

	bus.Handle(radar.MsgGetPageInfo, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeURL(payload)
		if err != nil {
			return nil, err
		}
		return o.PageInfo(ctx, req.URL), nil
	})

	bus.Handle(radar.MsgAuthorizeSite, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeURL(payload)
		if err != nil {
			return nil, err
		}
		return o.Authorize(ctx, req.URL)
	})

	bus.Handle(radar.MsgRevokeSite, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeURL(payload)
		if err != nil {
			return nil, err
		}
		return o.Revoke(ctx, req.URL)
	})

	bus.Handle(radar.MsgGetTasks, func(context.Context, json.RawMessage) (any, error) {
		return o.Tasks(), nil
	})

	bus.Handle(radar.MsgRetryTask, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return result(o.Retry(ctx, req.ID))
	})

	bus.Handle(radar.MsgCancelTask, func(ctx context.Context, payload json.RawMessage) (any, error) {
		req, err := decodeID(payload)
		if err != nil {
			return nil, err
		}
		return result(o.Cancel(ctx, req.ID))
	})

	bus.Handle(radar.MsgClearTasks, func(context.Context, json.RawMessage) (any, error) {
		return map[string]int{"cleared": o.ClearFinished()}, nil
	})
}

// redactedKey is the mask radar.Config.Redacted puts in place of a key.
const redactedKey = "****"

// decode unmarshals payload into a T. An empty payload yields the zero T.
func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, radar.Errorf(radar.EINVALID, "invalid payload: %v", err)
	}
	return v, nil
}

func decodeID(payload json.RawMessage) (idRequest, error) {
	req, err := decode[idRequest](payload)
	if err == nil && req.ID == "" {
		err = radar.Errorf(radar.EINVALID, "id required")
	}
	return req, err
}

func decodeURL(payload json.RawMessage) (urlRequest, error) {
	req, err := decode[urlRequest](payload)
	if err == nil && req.URL == "" {
		err = radar.Errorf(radar.EINVALID, "url required")
	}
	return req, err
}

// result keeps a nil pointer from reaching the response as typed nil.
func result[T any](v *T, err error) (any, error) {
	if v == nil {
		return nil, err
	}
	return v, err
}
