package task_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chen893/radar"
	"github.com/chen893/radar/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addPending stores n quick-saved extractions whose text is "page <i>".
func addPending(s *store, n int) {
	for i := range n {
		s.add(&radar.Extraction{
			URL:            fmt.Sprintf("https://www.reddit.com/r/x/comments/%d/", i),
			Title:          fmt.Sprintf("page %d", i),
			OriginalText:   fmt.Sprintf("page %d", i),
			AnalysisStatus: radar.AnalysisPending,
		})
	}
}

func TestOrchestrator_BatchAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("never runs more than three records at once", func(t *testing.T) {
		t.Parallel()

		var inFlight, peak atomic.Int32
		f := newFixture(t, &mock.Analyzer{
			AnalyzeFn: func(context.Context, string, string) (*radar.AnalysisResult, error) {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				return &radar.AnalysisResult{Summary: "s"}, nil
			},
		})
		addPending(f.store, 12)

		got, err := f.BatchAnalyze(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 12, got.Total)
		assert.Equal(t, 12, got.Completed+got.Failed)
		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.Positive(t, peak.Load())
	})

	t.Run("takes at most twenty records", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())
		addPending(f.store, 25)

		got, err := f.BatchAnalyze(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 20, f.store.lastFilter.Limit)
		assert.True(t, f.store.lastFilter.Oldest)
		assert.Equal(t, 20, got.Total)
		assert.Equal(t, 20, got.Completed)

		pending := 0
		for _, ex := range f.store.all() {
			if ex.AnalysisStatus == radar.AnalysisPending {
				pending++
			}
		}
		assert.Equal(t, 5, pending)
	})

	t.Run("saves demands of successful records and marks failures", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &mock.Analyzer{
			AnalyzeFn: func(_ context.Context, text, _ string) (*radar.AnalysisResult, error) {
				if strings.HasSuffix(text, "1") {
					return nil, errors.New("boom")
				}
				return &radar.AnalysisResult{
					Summary: "summary of " + text,
					Demands: []radar.DemandCandidate{{ID: "1", Solution: radar.Solution{Title: "idea"}}},
				}, nil
			},
		})
		addPending(f.store, 3)

		got, err := f.BatchAnalyze(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, got.Completed)
		assert.Equal(t, 1, got.Failed)
		assert.Equal(t, radar.EUNKNOWN, got.Errors["ex-2"].Code)

		for _, ex := range f.store.all() {
			if ex.ID == "ex-2" {
				assert.Equal(t, radar.AnalysisFailed, ex.AnalysisStatus)
				continue
			}
			assert.Equal(t, radar.AnalysisCompleted, ex.AnalysisStatus)
			assert.Equal(t, 1, ex.DemandCount)
			assert.Equal(t, 1, ex.SavedDemandCount)
			assert.Equal(t, "summary of "+ex.OriginalText, ex.Summary)
		}

		demands := f.store.savedDemands()
		require.Len(t, demands, 2)
		assert.NotEqual(t, demands[0].ID, demands[1].ID)
		assert.NotEqual(t, "1", demands[0].ID)
	})

	t.Run("publishes monotonic progress and completes once", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &mock.Analyzer{
			AnalyzeFn: func(_ context.Context, text, _ string) (*radar.AnalysisResult, error) {
				if strings.HasSuffix(text, "3") {
					return nil, &radar.StatusError{StatusCode: 500}
				}
				return &radar.AnalysisResult{}, nil
			},
		})
		addPending(f.store, 8)

		_, err := f.BatchAnalyze(context.Background())
		require.NoError(t, err)

		events := f.events.Events()
		require.Len(t, events, 9)
		last := radar.BatchProgress{}
		for _, ev := range events[:8] {
			require.Equal(t, radar.EventBatchProgress, ev.Type)
			p := ev.Data.(radar.BatchProgress)
			assert.Equal(t, 8, p.Total)
			assert.Equal(t, last.Completed+last.Failed+1, p.Completed+p.Failed)
			assert.GreaterOrEqual(t, p.Completed, last.Completed)
			assert.GreaterOrEqual(t, p.Failed, last.Failed)
			assert.LessOrEqual(t, p.Running, 3)
			last = p
		}
		assert.Equal(t, radar.EventBatchComplete, events[8].Type)
		final := events[8].Data.(radar.BatchProgress)
		assert.Equal(t, 7, final.Completed)
		assert.Equal(t, 1, final.Failed)
		assert.Zero(t, final.Running)
	})

	t.Run("completes immediately with nothing pending", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())

		got, err := f.BatchAnalyze(context.Background())

		require.NoError(t, err)
		assert.Zero(t, got.Total)
		assert.Equal(t, []radar.EventType{radar.EventBatchComplete}, f.events.Types())
	})

	t.Run("dequeues nothing without an API key", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())
		f.Config = configService(radar.Config{})
		addPending(f.store, 2)

		_, err := f.BatchAnalyze(context.Background())

		assert.Equal(t, radar.EAPIKEYMISSING, radar.ErrorCode(err))
		for _, ex := range f.store.all() {
			assert.Equal(t, radar.AnalysisPending, ex.AnalysisStatus)
		}
		require.Equal(t, []radar.EventType{radar.EventBatchComplete}, f.events.Types())
		assert.Equal(t, radar.BatchProgress{Total: 2}, f.events.Events()[0].Data)
	})

	t.Run("rejects a second concurrent batch", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})
		var once atomic.Bool
		f := newFixture(t, &mock.Analyzer{
			AnalyzeFn: func(context.Context, string, string) (*radar.AnalysisResult, error) {
				if once.CompareAndSwap(false, true) {
					close(started)
				}
				<-release
				return &radar.AnalysisResult{}, nil
			},
		})
		addPending(f.store, 1)

		done := make(chan error, 1)
		go func() {
			_, err := f.BatchAnalyze(context.Background())
			done <- err
		}()
		<-started

		_, err := f.BatchAnalyze(context.Background())
		assert.Equal(t, radar.ECONFLICT, radar.ErrorCode(err))

		close(release)
		require.NoError(t, <-done)
	})
}

func TestOrchestrator_AnalyzeExtraction(t *testing.T) {
	t.Parallel()

	t.Run("analyzes a failed record again", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())
		f.store.add(&radar.Extraction{ID: "ex-1", URL: redditURL, OriginalText: "text", AnalysisStatus: radar.AnalysisFailed})

		got, err := f.AnalyzeExtraction(context.Background(), "ex-1")

		require.NoError(t, err)
		assert.Equal(t, radar.AnalysisCompleted, got.AnalysisStatus)
		assert.Equal(t, 1, got.DemandCount)
		require.Len(t, f.store.savedDemands(), 1)
		assert.Equal(t, redditURL, f.store.savedDemands()[0].SourceURL)
	})

	t.Run("rejects completed records", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())
		f.store.add(&radar.Extraction{ID: "ex-1", URL: redditURL, AnalysisStatus: radar.AnalysisCompleted})

		_, err := f.AnalyzeExtraction(context.Background(), "ex-1")

		assert.Equal(t, radar.ECONFLICT, radar.ErrorCode(err))
	})

	t.Run("marks the record failed when storage is full", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())
		f.store.add(&radar.Extraction{ID: "ex-1", URL: redditURL, OriginalText: "text", AnalysisStatus: radar.AnalysisPending})
		f.store.used = radar.DefaultHardLimit

		_, err := f.AnalyzeExtraction(context.Background(), "ex-1")

		assert.Equal(t, radar.ESTORAGEFULL, radar.ErrorCode(err))
		assert.Equal(t, radar.AnalysisFailed, f.store.get("ex-1").AnalysisStatus)
		assert.Empty(t, f.store.savedDemands())
	})

	t.Run("rolls back demands when the record cannot be updated", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, oneDemand())
		f.store.add(&radar.Extraction{ID: "ex-1", URL: redditURL, OriginalText: "text", AnalysisStatus: radar.AnalysisPending})
		svc := f.store.extractionService()
		update := svc.UpdateExtractionFn
		var failed atomic.Bool
		svc.UpdateExtractionFn = func(ctx context.Context, id string, upd radar.ExtractionUpdate) (*radar.Extraction, error) {
			if upd.AnalysisStatus != nil && *upd.AnalysisStatus == radar.AnalysisCompleted && failed.CompareAndSwap(false, true) {
				return nil, errors.New("disk I/O error")
			}
			return update(ctx, id, upd)
		}
		f.Extractions = svc

		_, err := f.AnalyzeExtraction(context.Background(), "ex-1")

		require.Error(t, err)
		assert.Equal(t, radar.AnalysisFailed, f.store.get("ex-1").AnalysisStatus)
		assert.Empty(t, f.store.savedDemands())

		got, err := f.AnalyzeExtraction(context.Background(), "ex-1")

		require.NoError(t, err)
		assert.Equal(t, radar.AnalysisCompleted, got.AnalysisStatus)
		assert.Len(t, f.store.savedDemands(), 1)
	})
}
