package main

import (
	"fmt"

	"github.com/chen893/radar"
)

// Run executes the dedup command.
func (c *DedupCmd) Run(deps *Dependencies) error {
	groups, err := deps.Dedup.Analyze(deps.Ctx, c.Threshold)
	if err != nil {
		return report(deps, err)
	}
	if len(groups) == 0 {
		fmt.Fprintln(deps.Stdout, "No duplicates found.")
		return nil
	}

	for _, g := range groups {
		kind := fmt.Sprintf("%.0f%% similar", g.Similarity*100)
		if g.Exact {
			kind = "same title"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s (%s)\n", g.Keep.ID, g.Keep.Solution.Title, kind)
		for _, d := range g.Duplicates {
			fmt.Fprintf(deps.Stdout, "  %s  %s\n", d.ID, d.Solution.Title)
		}
	}

	if !c.Apply {
		fmt.Fprintf(deps.Stdout, "%d groups. Run with --apply to merge them.\n", len(groups))
		return nil
	}

	merged := 0
	for _, g := range groups {
		ids := make([]string, 0, len(g.Duplicates))
		for _, d := range g.Duplicates {
			ids = append(ids, d.ID)
		}
		if _, err := deps.Dedup.Confirm(deps.Ctx, g.Keep.ID, ids); err != nil {
			return report(deps, err)
		}
		merged += len(ids)
	}
	fmt.Fprintf(deps.Stdout, "Merged %d demands into %d\n", merged, len(groups))
	return nil
}

// Run executes the usage command.
func (c *UsageCmd) Run(deps *Dependencies) error {
	usage, err := deps.Orchestrator.StorageUsage(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}
	fmt.Fprintf(deps.Stdout, "%s of %s used (%.1f%%)\n",
		radar.FormatBytes(usage.Used), radar.FormatBytes(usage.Limit), usage.Percentage)
	return nil
}

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	n, err := deps.Exporter.Export(deps.Ctx, c.Dir)
	if err != nil {
		return report(deps, err)
	}
	fmt.Fprintf(deps.Stdout, "Exported %d demands to %s\n", n, c.Dir)
	return nil
}

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return radar.Errorf(radar.EINVALID, "use --force to confirm deletion")
	}
	if err := deps.Orchestrator.ClearData(deps.Ctx); err != nil {
		return report(deps, err)
	}
	fmt.Fprintln(deps.Stdout, "Deleted all pages and demands. Settings were kept.")
	return nil
}
