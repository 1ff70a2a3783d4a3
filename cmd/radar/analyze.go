package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chen893/radar"
)

// tab builds the tab for url, reading the snapshot file if one was given.
func (f PageFlags) tab(url string) (radar.Tab, error) {
	tab := radar.Tab{URL: url, Title: f.Title}
	if f.Snapshot != "" {
		data, err := os.ReadFile(f.Snapshot)
		if err != nil {
			return radar.Tab{}, err
		}
		tab.HTML = string(data)
	}
	return tab, nil
}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	tab, err := c.tab(c.URL)
	if err != nil {
		return report(deps, err)
	}

	t, err := deps.Orchestrator.AnalyzeCurrentPage(deps.Ctx, tab)
	if err != nil {
		return report(deps, err)
	}

	printResult(deps.Stdout, t.Result)

	if c.Keep && len(t.Result.Demands) > 0 {
		saved, err := deps.Orchestrator.SaveDemands(deps.Ctx, t.Result.ExtractionID, t.Result.Demands)
		if err != nil {
			return report(deps, err)
		}
		fmt.Fprintf(deps.Stdout, "Saved %d demands\n", len(saved))
	}
	return nil
}

func printResult(w io.Writer, r *radar.TaskResult) {
	fmt.Fprintf(w, "Extraction %s\n", r.ExtractionID)
	if r.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", r.Summary)
	}
	if len(r.Demands) == 0 {
		fmt.Fprintln(w, "\nNo demands found.")
		return
	}
	for i, d := range r.Demands {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, d.Solution.Title)
		if d.Solution.TargetUser != "" {
			fmt.Fprintf(w, "   For: %s\n", d.Solution.TargetUser)
		}
		if d.Solution.Description != "" {
			fmt.Fprintf(w, "   %s\n", d.Solution.Description)
		}
		if len(d.Validation.PainPoints) > 0 {
			fmt.Fprintf(w, "   Pain points: %s\n", strings.Join(d.Validation.PainPoints, "; "))
		}
		if len(d.Validation.Competitors) > 0 {
			fmt.Fprintf(w, "   Competitors: %s\n", strings.Join(d.Validation.Competitors, ", "))
		}
	}
}

// Run executes the save command.
func (c *SaveCmd) Run(deps *Dependencies) error {
	tab, err := c.tab(c.URL)
	if err != nil {
		return report(deps, err)
	}

	ex, err := deps.Orchestrator.QuickSave(deps.Ctx, tab)
	if err != nil {
		return report(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Saved %q (%s)\n", ex.Title, ex.ID)
	if ex.Truncated {
		fmt.Fprintf(deps.Stdout, "  Truncated from %d characters\n", ex.OriginalLength)
	}
	return nil
}
