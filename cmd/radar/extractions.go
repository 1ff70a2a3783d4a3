package main

import (
	"fmt"

	"github.com/chen893/radar"
)

// Run executes the extractions list command.
func (c *ExtractionsListCmd) Run(deps *Dependencies) error {
	filter := radar.ExtractionFilter{Limit: c.Limit}
	switch status := radar.AnalysisStatus(c.Status); status {
	case "":
	case radar.AnalysisPending, radar.AnalysisCompleted, radar.AnalysisFailed:
		filter.AnalysisStatus = &status
	default:
		return report(deps, radar.Errorf(radar.EINVALID, "unknown status %q: use pending, completed or failed", c.Status))
	}

	extractions, err := deps.Extractions.FindExtractions(deps.Ctx, filter)
	if err != nil {
		return report(deps, err)
	}
	if len(extractions) == 0 {
		fmt.Fprintln(deps.Stdout, "No saved pages.")
		return nil
	}
	for _, ex := range extractions {
		fmt.Fprintf(deps.Stdout, "%s  %-9s  %d/%d  %s\n    %s\n",
			ex.ID, ex.AnalysisStatus, ex.SavedDemandCount, ex.DemandCount, ex.Title, ex.URL)
	}
	return nil
}

// Run executes the extractions analyze command.
func (c *ExtractionsAnalyzeCmd) Run(deps *Dependencies) error {
	ex, err := deps.Orchestrator.AnalyzeExtraction(deps.Ctx, c.ID)
	if err != nil {
		return report(deps, classify(err))
	}
	fmt.Fprintf(deps.Stdout, "Analyzed %q: %d demands saved\n", ex.Title, ex.SavedDemandCount)
	return nil
}

// Run executes the extractions delete command.
func (c *ExtractionsDeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Extractions.DeleteExtraction(deps.Ctx, c.ID); err != nil {
		return report(deps, err)
	}
	fmt.Fprintf(deps.Stdout, "Deleted extraction %s and its demands\n", c.ID)
	return nil
}
