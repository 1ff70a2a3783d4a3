package task

import (
	"context"
	"sync"

	"github.com/chen893/radar"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Batch defaults.
const (
	DefaultBatchSize = 20
	DefaultWorkers   = 3
)

// BatchSummary reports the outcome of a batch run. Completed+Failed is the
// number of records taken from the queue, which is Total unless the run
// was cancelled.
type BatchSummary struct {
	Total     int                         `json:"total"`
	Completed int                         `json:"completed"`
	Failed    int                         `json:"failed"`
	Errors    map[string]*radar.TaskError `json:"errors,omitempty"`
}

// workQueue is the shared list batch workers pull from.
type workQueue struct {
	mu    sync.Mutex
	items []*radar.Extraction
}

func (q *workQueue) pop() (*radar.Extraction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	ex := q.items[0]
	q.items = q.items[1:]
	return ex, true
}

// BatchAnalyze analyzes the oldest quick-saved extractions. Each record ends
// either completed with its demands saved, or failed. A batch-progress
// event follows every record and a single batch-complete event ends the
// run. Only one batch runs at a time.
func (o *Orchestrator) BatchAnalyze(ctx context.Context) (*BatchSummary, error) {
	o.batchMu.Lock()
	if o.batchRunning {
		o.batchMu.Unlock()
		return nil, radar.Errorf(radar.ECONFLICT, "a batch is already running")
	}
	o.batchRunning = true
	o.batchMu.Unlock()
	defer func() {
		o.batchMu.Lock()
		o.batchRunning = false
		o.batchMu.Unlock()
	}()

	size := o.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	workers := o.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	status := radar.AnalysisPending
	pending, err := o.Extractions.FindExtractions(ctx, radar.ExtractionFilter{
		AnalysisStatus: &status,
		Oldest:         true,
		Limit:          size,
	})
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{Total: len(pending), Errors: map[string]*radar.TaskError{}}
	if len(pending) == 0 {
		o.broadcast(ctx, radar.Event{Type: radar.EventBatchComplete, Data: radar.BatchProgress{}})
		return summary, nil
	}

	cfg, analyzer, err := o.analyzer(ctx)
	if err != nil {
		// Nothing was dequeued; still close the batch for listeners.
		o.broadcast(ctx, radar.Event{Type: radar.EventBatchComplete, Data: radar.BatchProgress{Total: len(pending)}})
		return nil, err
	}

	o.logger().Info("batch started", "records", len(pending), "workers", workers)

	queue := &workQueue{items: pending}
	var mu sync.Mutex
	progress := radar.BatchProgress{Total: len(pending)}

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for gctx.Err() == nil {
				ex, ok := queue.pop()
				if !ok {
					return nil
				}

				mu.Lock()
				progress.Running++
				mu.Unlock()

				err := o.processExtraction(gctx, analyzer, cfg, ex)

				// Broadcasting under mu keeps the published counters in order.
				mu.Lock()
				progress.Running--
				if err != nil {
					progress.Failed++
					summary.Errors[ex.ID] = radar.ClassifyError(err)
				} else {
					progress.Completed++
				}
				o.broadcast(ctx, radar.Event{Type: radar.EventBatchProgress, Data: progress})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Completed = progress.Completed
	summary.Failed = progress.Failed
	o.broadcast(ctx, radar.Event{Type: radar.EventBatchComplete, Data: progress})
	o.logger().Info("batch finished", "completed", summary.Completed, "failed", summary.Failed)

	return summary, ctx.Err()
}

// AnalyzeExtraction analyzes one stored extraction that has not completed
// analysis yet and saves its demands.
func (o *Orchestrator) AnalyzeExtraction(ctx context.Context, id string) (*radar.Extraction, error) {
	ex, err := o.Extractions.FindExtractionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ex.AnalysisStatus == radar.AnalysisCompleted {
		return nil, radar.Errorf(radar.ECONFLICT, "extraction %s is already analyzed", id)
	}

	cfg, analyzer, err := o.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.processExtraction(ctx, analyzer, cfg, ex); err != nil {
		return nil, err
	}
	return o.Extractions.FindExtractionByID(ctx, id)
}

// processExtraction analyzes a stored extraction and saves every demand
// the model proposes. Any failure marks the record failed.
func (o *Orchestrator) processExtraction(ctx context.Context, analyzer radar.Analyzer, cfg *radar.Config, ex *radar.Extraction) (err error) {
	defer func() {
		if err != nil {
			o.markFailed(ctx, ex.ID, err)
		}
	}()

	res, err := o.analyze(ctx, analyzer, cfg, ex.OriginalText)
	if err != nil {
		return err
	}

	demands := make([]*radar.Demand, 0, len(res.Demands))
	var size int64
	for _, c := range res.Demands {
		d := radar.NewDemand(ex, c)
		d.ID = uuid.New().String()
		size += demandSize(d)
		demands = append(demands, d)
	}
	size += int64(len(res.Summary))

	o.storageMu.Lock()
	defer o.storageMu.Unlock()

	if _, err := o.checkCapacity(ctx, size); err != nil {
		return err
	}
	if len(demands) > 0 {
		if err := o.Demands.CreateDemands(ctx, demands); err != nil {
			return err
		}
	}

	completed := radar.AnalysisCompleted
	count := len(demands)
	if _, err := o.Extractions.UpdateExtraction(ctx, ex.ID, radar.ExtractionUpdate{
		Summary:          &res.Summary,
		AnalysisStatus:   &completed,
		DemandCount:      &count,
		SavedDemandCount: &count,
	}); err != nil {
		o.rollbackDemands(ctx, demands)
		return err
	}
	return nil
}

// rollbackDemands deletes demands whose extraction could not be updated, so
// a failed record never keeps a demand set.
func (o *Orchestrator) rollbackDemands(ctx context.Context, demands []*radar.Demand) {
	if len(demands) == 0 {
		return
	}
	ids := make([]string, len(demands))
	for i, d := range demands {
		ids[i] = d.ID
	}
	if err := o.Demands.DeleteDemands(context.WithoutCancel(ctx), ids); err != nil {
		o.logger().Error("failed to roll back demands", "demands", len(ids), "error", err)
	}
}

func (o *Orchestrator) markFailed(ctx context.Context, id string, cause error) {
	failed := radar.AnalysisFailed
	if _, err := o.Extractions.UpdateExtraction(context.WithoutCancel(ctx), id, radar.ExtractionUpdate{
		AnalysisStatus: &failed,
	}); err != nil {
		o.logger().Error("failed to mark extraction failed", "extraction", id, "error", err)
		return
	}
	o.logger().Warn("extraction analysis failed", "extraction", id, "error", cause)
}
