package task_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/mock"
	"github.com/chen893/radar/task"
)

// store is an in-memory backing for the storage mocks.
type store struct {
	mu          sync.Mutex
	extractions map[string]*radar.Extraction
	order       []string
	demands     []*radar.Demand
	used        int64
	creates     int
	lastFilter  radar.ExtractionFilter
}

func newStore() *store {
	return &store{extractions: map[string]*radar.Extraction{}}
}

func (s *store) add(ex *radar.Extraction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ex.ID == "" {
		ex.ID = fmt.Sprintf("ex-%d", len(s.order)+1)
	}
	s.extractions[ex.ID] = ex
	s.order = append(s.order, ex.ID)
}

func (s *store) get(id string) *radar.Extraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ex, ok := s.extractions[id]; ok {
		c := *ex
		return &c
	}
	return nil
}

func (s *store) all() []*radar.Extraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*radar.Extraction
	for _, id := range s.order {
		c := *s.extractions[id]
		out = append(out, &c)
	}
	return out
}

func (s *store) savedDemands() []*radar.Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.demands)
}

func (s *store) createCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *store) extractionService() *mock.ExtractionService {
	return &mock.ExtractionService{
		CreateExtractionFn: func(_ context.Context, ex *radar.Extraction) error {
			s.mu.Lock()
			s.creates++
			s.mu.Unlock()
			s.add(ex)
			return nil
		},
		FindExtractionByIDFn: func(_ context.Context, id string) (*radar.Extraction, error) {
			if ex := s.get(id); ex != nil {
				return ex, nil
			}
			return nil, radar.Errorf(radar.ENOTFOUND, "extraction not found")
		},
		FindExtractionsFn: func(_ context.Context, filter radar.ExtractionFilter) ([]*radar.Extraction, error) {
			s.mu.Lock()
			s.lastFilter = filter
			s.mu.Unlock()
			var out []*radar.Extraction
			for _, ex := range s.all() {
				if filter.AnalysisStatus != nil && ex.AnalysisStatus != *filter.AnalysisStatus {
					continue
				}
				out = append(out, ex)
				if filter.Limit > 0 && len(out) == filter.Limit {
					break
				}
			}
			return out, nil
		},
		UpdateExtractionFn: func(_ context.Context, id string, upd radar.ExtractionUpdate) (*radar.Extraction, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			ex, ok := s.extractions[id]
			if !ok {
				return nil, radar.Errorf(radar.ENOTFOUND, "extraction not found")
			}
			if upd.Summary != nil {
				ex.Summary = *upd.Summary
			}
			if upd.AnalysisStatus != nil {
				ex.AnalysisStatus = *upd.AnalysisStatus
			}
			if upd.DemandCount != nil {
				ex.DemandCount = *upd.DemandCount
			}
			if upd.SavedDemandCount != nil {
				ex.SavedDemandCount = *upd.SavedDemandCount
			}
			c := *ex
			return &c, nil
		},
		DeleteExtractionFn: func(_ context.Context, id string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.extractions, id)
			s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
			return nil
		},
	}
}

func (s *store) demandService() *mock.DemandService {
	return &mock.DemandService{
		CreateDemandsFn: func(_ context.Context, demands []*radar.Demand) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.demands = append(s.demands, demands...)
			return nil
		},
		DeleteDemandsFn: func(_ context.Context, ids []string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.demands = slices.DeleteFunc(s.demands, func(d *radar.Demand) bool { return slices.Contains(ids, d.ID) })
			return nil
		},
	}
}

func (s *store) storageService() *mock.StorageService {
	return &mock.StorageService{
		UsedBytesFn: func(context.Context) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.used, nil
		},
		ClearFn: func(context.Context) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.extractions = map[string]*radar.Extraction{}
			s.order = nil
			s.demands = nil
			return nil
		},
	}
}

// configService returns a ConfigService holding cfg in memory.
func configService(cfg radar.Config) *mock.ConfigService {
	var mu sync.Mutex
	return &mock.ConfigService{
		ConfigFn: func(context.Context) (*radar.Config, error) {
			mu.Lock()
			defer mu.Unlock()
			c := cfg
			c.CustomWhitelist = slices.Clone(cfg.CustomWhitelist)
			return &c, nil
		},
		UpdateConfigFn: func(_ context.Context, c *radar.Config) error {
			mu.Lock()
			defer mu.Unlock()
			cfg = *c
			return nil
		},
	}
}

const redditURL = "https://www.reddit.com/r/SaaS/comments/abc/tool_x/"

// page returns a PageContext serving a Reddit post titled "Tool X is too
// expensive" with a 500 character body.
func page() *mock.PageContext {
	return &mock.PageContext{
		ExtractPageFn: func(_ context.Context, tab radar.Tab) (*radar.ExtractionResult, error) {
			return &radar.ExtractionResult{
				Success:  true,
				Platform: radar.PlatformReddit,
				Content: radar.PageContent{
					Title:    "Tool X is too expensive",
					Body:     strings.Repeat("a", 500),
					Metadata: radar.PageMetadata{URL: tab.URL},
				},
			}, nil
		},
	}
}

func oneDemand() *mock.Analyzer {
	return &mock.Analyzer{
		AnalyzeFn: func(context.Context, string, string) (*radar.AnalysisResult, error) {
			return &radar.AnalysisResult{
				Summary: "People want a cheaper Tool X.",
				Demands: []radar.DemandCandidate{
					{ID: "1", Solution: radar.Solution{Title: "Cheap alternative to Tool X"}},
				},
			}, nil
		},
	}
}

// fixture is an orchestrator wired to in-memory mocks.
type fixture struct {
	*task.Orchestrator
	store  *store
	events *mock.Recorder
}

func newFixture(t *testing.T, analyzer radar.Analyzer) *fixture {
	t.Helper()

	s := newStore()
	rec := &mock.Recorder{}
	o := task.New()
	o.Pages = page()
	o.Extractions = s.extractionService()
	o.Demands = s.demandService()
	o.Storage = s.storageService()
	o.Config = configService(radar.Config{LLM: radar.LLMConfig{Provider: radar.ProviderGemini, APIKey: "key"}})
	o.Analyzers = mock.AnalyzerFactory(analyzer)
	o.Broadcaster = rec

	return &fixture{Orchestrator: o, store: s, events: rec}
}

// taskEvents returns the tasks carried by task lifecycle events.
func taskEvents(rec *mock.Recorder) []*radar.Task {
	var out []*radar.Task
	for _, ev := range rec.Events() {
		if t, ok := ev.Data.(*radar.Task); ok {
			out = append(out, t)
		}
	}
	return out
}
