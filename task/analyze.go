package task

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chen893/radar"
	"github.com/google/uuid"
)

// run drives one generation of a task from pending to a terminal state.
func (o *Orchestrator) run(ctx context.Context, id string, gen uint64, tab radar.Tab) (*radar.Task, error) {
	ex, res, err := o.execute(ctx, id, gen, tab)
	if err != nil {
		return o.fail(ctx, id, gen, err)
	}

	done := o.update(id, gen, func(t *radar.Task) {
		now := time.Now().UTC()
		t.Status = radar.TaskCompleted
		t.Progress = ProgressCompleted
		t.CompletedAt = &now
		t.Error = nil
		t.Result = &radar.TaskResult{
			ExtractionID: ex.ID,
			Summary:      res.Summary,
			Demands:      res.Demands,
		}
	})
	if done == nil {
		// Cancelled between the write and now; the record must not outlive
		// a task the user already saw fail.
		if err := o.Extractions.DeleteExtraction(context.WithoutCancel(ctx), ex.ID); err != nil {
			o.logger().Warn("failed to discard extraction of cancelled task", "task", id, "extraction", ex.ID, "error", err)
		}
		return o.discarded(id)
	}

	o.broadcast(ctx, radar.Event{Type: radar.EventTaskCompleted, Data: done})
	return done, nil
}

// execute runs the stages of a task and returns the persisted extraction.
func (o *Orchestrator) execute(ctx context.Context, id string, gen uint64, tab radar.Tab) (*radar.Extraction, *radar.AnalysisResult, error) {
	started := o.update(id, gen, func(t *radar.Task) {
		now := time.Now().UTC()
		t.Status = radar.TaskExtracting
		t.Progress = ProgressExtracting
		t.StartedAt = &now
	})
	if started == nil {
		return nil, nil, context.Canceled
	}
	o.broadcast(ctx, radar.Event{Type: radar.EventTaskStatusUpdated, Data: started})

	result, err := o.extract(ctx, tab)
	if err != nil {
		return nil, nil, err
	}
	ex := radar.NewExtraction(tab, result, radar.AnalysisCompleted)
	o.update(id, gen, func(t *radar.Task) {
		t.Source.Title = ex.Title
		t.Source.Platform = result.Platform
	})

	if _, err := o.checkCapacity(ctx, extractionSize(ex)); err != nil {
		return nil, nil, err
	}

	analyzing := o.update(id, gen, func(t *radar.Task) {
		t.Status = radar.TaskAnalyzing
		t.Progress = ProgressAnalyzing
	})
	if analyzing == nil {
		return nil, nil, context.Canceled
	}
	o.broadcast(ctx, radar.Event{Type: radar.EventTaskStatusUpdated, Data: analyzing})

	cfg, analyzer, err := o.analyzer(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := o.analyze(ctx, analyzer, cfg, result.Text())
	if err != nil {
		return nil, nil, err
	}
	for i := range res.Demands {
		res.Demands[i].ID = uuid.New().String()
	}

	ex.Summary = res.Summary
	ex.DemandCount = len(res.Demands)
	ex.SavedDemandCount = 0

	o.storageMu.Lock()
	defer o.storageMu.Unlock()
	if !o.current(id, gen) {
		return nil, nil, context.Canceled
	}
	if _, err := o.checkCapacity(ctx, extractionSize(ex)); err != nil {
		return nil, nil, err
	}
	if err := o.Extractions.CreateExtraction(ctx, ex); err != nil {
		return nil, nil, err
	}
	return ex, res, nil
}

// fail records err on the task and broadcasts the failure.
func (o *Orchestrator) fail(ctx context.Context, id string, gen uint64, err error) (*radar.Task, error) {
	te := radar.ClassifyError(err)
	failed := o.update(id, gen, func(t *radar.Task) {
		now := time.Now().UTC()
		t.Status = radar.TaskFailed
		t.CompletedAt = &now
		t.Result = nil
		t.Error = te
	})
	if failed == nil {
		return o.discarded(id)
	}

	o.logger().Warn("task failed", "task", id, "url", failed.Source.URL, "code", te.Code, "error", err)
	o.broadcast(ctx, radar.Event{Type: radar.EventTaskError, Data: failed})
	return failed, te
}

// discarded reports the current state of a task whose run was superseded.
func (o *Orchestrator) discarded(id string) (*radar.Task, error) {
	t := o.snapshot(id)
	if t == nil {
		return nil, radar.NewTaskError(radar.ECANCELLED, "")
	}
	if t.Error != nil {
		return t, t.Error
	}
	return t, nil
}

// extract reads the page. Results without any text are failures; degraded
// fallback results are not.
func (o *Orchestrator) extract(ctx context.Context, tab radar.Tab) (*radar.ExtractionResult, error) {
	result, err := o.Pages.ExtractPage(ctx, tab)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if radar.IsAnalysisCode(radar.ErrorCode(err)) {
			return nil, err
		}
		return nil, radar.Errorf(radar.EEXTRACTION, "%v", err)
	}
	if result == nil || !result.Success {
		msg := "page could not be read"
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		return nil, radar.Errorf(radar.EEXTRACTION, "%s", msg)
	}
	if strings.TrimSpace(result.Text()) == "" {
		return nil, radar.Errorf(radar.EEXTRACTION, "page has no readable content")
	}
	if result.FallbackUsed {
		o.logger().Info("adapter fell back to generic extraction", "url", tab.URL, "platform", result.Platform, "cause", result.Error)
	}
	return result, nil
}

// checkCapacity returns STORAGE_FULL if size more bytes would exceed the
// hard limit.
func (o *Orchestrator) checkCapacity(ctx context.Context, size int64) (radar.CapacityDecision, error) {
	used, err := o.Storage.UsedBytes(ctx)
	if err != nil {
		return radar.CapacityDecision{}, err
	}
	d := o.policy().CanStore(used, size)
	if !d.Allowed {
		return d, radar.Errorf(radar.ESTORAGEFULL, "%s", d.Warning)
	}
	if d.Warning != "" {
		o.logger().Warn(d.Warning, "used", used, "size", size)
	}
	return d, nil
}

// analyzer builds the analyzer for the stored provider configuration.
func (o *Orchestrator) analyzer(ctx context.Context) (*radar.Config, radar.Analyzer, error) {
	cfg, _, err := o.storedConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	a, err := o.newAnalyzer(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	return cfg, a, nil
}

func (o *Orchestrator) newAnalyzer(llm radar.LLMConfig) (radar.Analyzer, error) {
	if strings.TrimSpace(llm.APIKey) == "" {
		return nil, radar.Errorf(radar.EAPIKEYMISSING, "no API key configured for %s", llm.Provider)
	}
	if o.Analyzers == nil {
		return nil, radar.Errorf(radar.EINTERNAL, "no analyzer factory configured")
	}
	return o.Analyzers(llm)
}

// PreparePrompt returns the copy of text that is sent to a model: sanitized,
// truncated to radar.MaxContentLength and shortened to the token budget.
func (o *Orchestrator) PreparePrompt(ctx context.Context, text string) string {
	prompt, redactions := radar.SanitizeReport(text)
	prompt, truncated, length := radar.Truncate(prompt, radar.MaxContentLength)
	if len(redactions) > 0 || truncated {
		o.logger().Debug("prepared prompt", "redactions", redactions, "truncated", truncated, "length", length)
	}
	return o.fitTokens(ctx, prompt)
}

// fitTokenAttempts bounds how often fitTokens recounts a shortened prompt.
const fitTokenAttempts = 3

// fitTokens cuts prompt in proportion to how far it is over the token
// budget until it fits. A counting error leaves the prompt as it is.
func (o *Orchestrator) fitTokens(ctx context.Context, prompt string) string {
	if o.TokenCounter == nil {
		return prompt
	}
	budget := o.TokenBudget
	if budget <= 0 {
		budget = radar.MaxPromptTokens
	}

	for range fitTokenAttempts {
		n, err := o.TokenCounter.CountTokens(ctx, prompt)
		if err != nil {
			o.logger().Debug("token counting failed", "error", err)
			return prompt
		}
		if n <= budget {
			return prompt
		}
		body := strings.TrimSuffix(prompt, radar.TruncationMarker)
		keep := max(utf8.RuneCountInString(body)*budget/n*9/10-utf8.RuneCountInString(radar.TruncationMarker), 1)
		o.logger().Warn("prompt exceeds token budget", "tokens", n, "budget", budget, "keep", keep)
		prompt, _, _ = radar.Truncate(body, keep)
	}
	return prompt
}

// analyze sends a prepared copy of text to the model. The text passed in is
// never modified.
func (o *Orchestrator) analyze(ctx context.Context, analyzer radar.Analyzer, cfg *radar.Config, text string) (*radar.AnalysisResult, error) {
	res, err := analyzer.Analyze(ctx, o.PreparePrompt(ctx, text), cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if res.Demands == nil {
		res.Demands = []radar.DemandCandidate{}
	}
	return res, nil
}

// extractionSize is the number of bytes an extraction occupies in storage.
func extractionSize(ex *radar.Extraction) int64 {
	return int64(len(ex.URL) + len(ex.Title) + len(ex.OriginalText) + len(ex.Summary))
}

// demandSize estimates the bytes a demand occupies in storage, where its
// solution, validation and tags are kept as JSON.
func demandSize(d *radar.Demand) int64 {
	n := len(d.Notes)
	for _, v := range []any{d.Solution, d.Validation, d.Tags} {
		b, _ := json.Marshal(v)
		n += len(b)
	}
	return int64(n)
}
