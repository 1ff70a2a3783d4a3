// Package task drives pages through extraction, analysis and persistence.
// It owns the table of in-flight analysis tasks and broadcasts every state
// change so that foreground listeners converge on the same view.
package task

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/chen893/radar"
	"github.com/google/uuid"
)

// Progress reported for each stage of a task.
const (
	ProgressExtracting = 10
	ProgressAnalyzing  = 50
	ProgressCompleted  = 100
)

// ConnectionTestTimeout bounds TestConnection.
const ConnectionTestTimeout = 10 * time.Second

// Orchestrator coordinates analysis tasks.
type Orchestrator struct {
	Pages       radar.PageContext
	Filter      *radar.SiteFilter
	Policy      radar.CapacityPolicy
	Extractions radar.ExtractionService
	Demands     radar.DemandService
	Storage     radar.StorageService
	Config      radar.ConfigService
	Analyzers   radar.AnalyzerFactory
	Broadcaster radar.Broadcaster

	// Registry, if set, names the platform in PageInfo.
	Registry radar.AdapterRegistry

	// TokenCounter, if set, measures each prompt and shortens it to fit
	// TokenBudget, which defaults to radar.MaxPromptTokens.
	TokenCounter radar.TokenCounter
	TokenBudget  int

	// BatchSize and Workers override DefaultBatchSize and DefaultWorkers.
	BatchSize int
	Workers   int

	Logger *slog.Logger

	mu    sync.Mutex
	tasks map[string]*entry
	order []string

	// storageMu serializes the capacity check with the write it guards.
	storageMu sync.Mutex

	batchMu      sync.Mutex
	batchRunning bool

	filterMu         sync.Mutex
	appliedBlacklist []string
}

// entry is the orchestrator's private record of a task. gen increases
// whenever the task is retried or cancelled; updates from an older run are
// discarded.
type entry struct {
	task   *radar.Task
	tab    radar.Tab
	gen    uint64
	cancel context.CancelFunc
}

// New creates an Orchestrator with the default capacity policy and site
// filter.
func New() *Orchestrator {
	return &Orchestrator{
		Filter: radar.NewDefaultSiteFilter(),
		Policy: radar.DefaultCapacityPolicy(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *Orchestrator) policy() radar.CapacityPolicy {
	if o.Policy.HardLimit == 0 {
		return radar.DefaultCapacityPolicy()
	}
	return o.Policy
}

func (o *Orchestrator) filter() *radar.SiteFilter {
	o.filterMu.Lock()
	defer o.filterMu.Unlock()
	if o.Filter == nil {
		o.Filter = radar.NewDefaultSiteFilter()
	}
	return o.Filter
}

// broadcast delivers ev. Failures never affect the task that caused them.
func (o *Orchestrator) broadcast(ctx context.Context, ev radar.Event) {
	if o.Broadcaster == nil {
		return
	}
	if err := o.Broadcaster.Broadcast(context.WithoutCancel(ctx), ev); err != nil {
		o.logger().Debug("broadcast dropped", "type", ev.Type, "error", err)
	}
}

// AnalyzeCurrentPage extracts the page behind tab, analyzes it and
// persists the extraction. Pages rejected by the site filter return
// EFORBIDDEN without creating a task. Otherwise the final task is
// returned; if it failed, its *radar.TaskError is returned as well.
func (o *Orchestrator) AnalyzeCurrentPage(ctx context.Context, tab radar.Tab) (*radar.Task, error) {
	if d := o.filter().IsAllowed(tab.URL); !d.Allowed {
		return nil, radar.Errorf(radar.EFORBIDDEN, "%s: %s", tab.URL, d.Reason)
	}

	t := &radar.Task{
		ID: uuid.New().String(),
		Source: radar.TaskSource{
			URL:     tab.URL,
			Title:   tab.Title,
			Favicon: tab.Favicon,
		},
		Status:    radar.TaskPending,
		CreatedAt: time.Now().UTC(),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e := &entry{task: t, tab: tab, gen: 1, cancel: cancel}
	o.mu.Lock()
	if o.tasks == nil {
		o.tasks = make(map[string]*entry)
	}
	o.tasks[t.ID] = e
	o.order = append(o.order, t.ID)
	created := t.Clone()
	o.mu.Unlock()

	o.broadcast(ctx, radar.Event{Type: radar.EventTaskCreated, Data: created})

	return o.run(runCtx, t.ID, 1, tab)
}

// Retry resets a failed task to pending and runs it again. The page is
// extracted afresh; any snapshot captured with the original request is
// not reused.
func (o *Orchestrator) Retry(ctx context.Context, id string) (*radar.Task, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	e, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return nil, radar.Errorf(radar.ENOTFOUND, "task %s not found", id)
	}
	if e.task.Status != radar.TaskFailed {
		o.mu.Unlock()
		return nil, radar.Errorf(radar.ECONFLICT, "task %s is %s, only failed tasks can be retried", id, e.task.Status)
	}
	e.gen++
	e.cancel = cancel
	e.tab.HTML = ""
	e.task.Status = radar.TaskPending
	e.task.Progress = 0
	e.task.StartedAt = nil
	e.task.CompletedAt = nil
	e.task.Result = nil
	e.task.Error = nil
	gen, tab, reset := e.gen, e.tab, e.task.Clone()
	o.mu.Unlock()

	o.broadcast(ctx, radar.Event{Type: radar.EventTaskStatusUpdated, Data: reset})

	return o.run(runCtx, id, gen, tab)
}

// Cancel moves a running task to error immediately. The in-flight stage is
// asked to stop through its context and whatever it returns later is
// discarded.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*radar.Task, error) {
	o.mu.Lock()
	e, ok := o.tasks[id]
	if !ok {
		o.mu.Unlock()
		return nil, radar.Errorf(radar.ENOTFOUND, "task %s not found", id)
	}
	if e.task.Status.Terminal() {
		o.mu.Unlock()
		return nil, radar.Errorf(radar.ECONFLICT, "task %s is already %s", id, e.task.Status)
	}
	e.gen++
	now := time.Now().UTC()
	e.task.Status = radar.TaskFailed
	e.task.CompletedAt = &now
	e.task.Error = radar.NewTaskError(radar.ECANCELLED, "Cancelled by user.")
	if e.cancel != nil {
		e.cancel()
	}
	cancelled := e.task.Clone()
	o.mu.Unlock()

	o.broadcast(ctx, radar.Event{Type: radar.EventTaskError, Data: cancelled})
	return cancelled, nil
}

// Task returns a copy of the task with the given ID.
func (o *Orchestrator) Task(id string) (*radar.Task, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.tasks[id]
	if !ok {
		return nil, radar.Errorf(radar.ENOTFOUND, "task %s not found", id)
	}
	return e.task.Clone(), nil
}

// Tasks returns copies of all tracked tasks, newest first.
func (o *Orchestrator) Tasks() []*radar.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*radar.Task, 0, len(o.order))
	for _, id := range slices.Backward(o.order) {
		out = append(out, o.tasks[id].task.Clone())
	}
	return out
}

// ClearFinished forgets completed and failed tasks and returns how many
// were removed.
func (o *Orchestrator) ClearFinished() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	o.order = slices.DeleteFunc(o.order, func(id string) bool {
		if o.tasks[id].task.Status.Terminal() {
			delete(o.tasks, id)
			n++
			return true
		}
		return false
	})
	return n
}

// update applies fn to the task if gen is still current and the task has
// not reached a terminal state. It returns a copy of the updated task, or
// nil when the update was discarded.
func (o *Orchestrator) update(id string, gen uint64, fn func(t *radar.Task)) *radar.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.tasks[id]
	if !ok || e.gen != gen || e.task.Status.Terminal() {
		return nil
	}
	before := e.task.Status
	fn(e.task)
	if e.task.Status != before && !before.CanTransition(e.task.Status) {
		e.task.Status = before
		return nil
	}
	return e.task.Clone()
}

// current reports whether gen is still the live run of task id.
func (o *Orchestrator) current(id string, gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.tasks[id]
	return ok && e.gen == gen && !e.task.Status.Terminal()
}

// snapshot returns a copy of the task regardless of its generation.
func (o *Orchestrator) snapshot(id string) *radar.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.tasks[id]; ok {
		return e.task.Clone()
	}
	return nil
}
