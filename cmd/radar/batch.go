package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chen893/radar"
)

// Run executes the batch command.
func (c *BatchCmd) Run(deps *Dependencies) error {
	deps.Orchestrator.BatchSize = c.Size
	deps.Orchestrator.Workers = c.Workers

	events, cancel := deps.Bus.Subscribe(64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			if p, ok := ev.Data.(radar.BatchProgress); ok && ev.Type == radar.EventBatchProgress {
				fmt.Fprintf(deps.Stdout, "  %d/%d analyzed, %d failed\n", p.Completed+p.Failed, p.Total, p.Failed)
			}
		}
	}()

	summary, err := deps.Orchestrator.BatchAnalyze(deps.Ctx)
	cancel()
	wg.Wait()

	if summary == nil {
		return report(deps, err)
	}
	if summary.Total == 0 {
		fmt.Fprintln(deps.Stdout, "Nothing to analyze. Use 'radar save' to queue pages.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Analyzed %d of %d pages, %d failed\n", summary.Completed, summary.Total, summary.Failed)
	ids := make([]string, 0, len(summary.Errors))
	for id := range summary.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		te := summary.Errors[id]
		fmt.Fprintf(deps.Stderr, "  %s: %s (%s)\n", id, te.Message, te.Code)
	}
	if err != nil {
		return report(deps, err)
	}
	return nil
}
