package main

import (
	"fmt"
	"io"

	"github.com/chen893/radar"
	"github.com/chen893/radar/fs"
)

// Run executes the demands list command.
func (c *DemandsListCmd) Run(deps *Dependencies) error {
	filter := radar.DemandFilter{Limit: c.Limit}
	if c.Starred {
		starred := true
		filter.Starred = &starred
	}
	if !c.Archived {
		archived := false
		filter.Archived = &archived
	}

	demands, err := deps.Demands.FindDemands(deps.Ctx, filter)
	if err != nil {
		return report(deps, err)
	}
	if len(demands) == 0 {
		fmt.Fprintln(deps.Stdout, "No demands found. Use 'radar analyze URL --keep' to collect some.")
		return nil
	}
	printDemands(deps.Stdout, demands)
	return nil
}

// Run executes the demands search command.
func (c *DemandsSearchCmd) Run(deps *Dependencies) error {
	demands, err := deps.Demands.FindDemands(deps.Ctx, radar.DemandFilter{Query: c.Query, Limit: c.Limit})
	if err != nil {
		return report(deps, err)
	}
	if len(demands) == 0 {
		fmt.Fprintf(deps.Stdout, "No demands match %q\n", c.Query)
		return nil
	}
	printDemands(deps.Stdout, demands)
	return nil
}

// Run executes the demands show command.
func (c *DemandsShowCmd) Run(deps *Dependencies) error {
	d, err := deps.Demands.FindDemandByID(deps.Ctx, c.ID)
	if err != nil {
		return report(deps, err)
	}
	out, err := fs.FormatDemand(d)
	if err != nil {
		return report(deps, err)
	}
	fmt.Fprint(deps.Stdout, out)
	return nil
}

// Run executes the demands star command.
func (c *DemandsStarCmd) Run(deps *Dependencies) error {
	starred := !c.Unset
	d, err := deps.Demands.UpdateDemand(deps.Ctx, c.ID, radar.DemandUpdate{Starred: &starred})
	if err != nil {
		return report(deps, err)
	}
	if starred {
		fmt.Fprintf(deps.Stdout, "Starred %q\n", d.Solution.Title)
	} else {
		fmt.Fprintf(deps.Stdout, "Unstarred %q\n", d.Solution.Title)
	}
	return nil
}

// Run executes the demands delete command.
func (c *DemandsDeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Demands.DeleteDemand(deps.Ctx, c.ID); err != nil {
		return report(deps, err)
	}
	fmt.Fprintf(deps.Stdout, "Deleted demand %s\n", c.ID)
	return nil
}

func printDemands(w io.Writer, demands []*radar.Demand) {
	for _, d := range demands {
		star := " "
		if d.Starred {
			star = "*"
		}
		fmt.Fprintf(w, "%s %s  %s\n", star, d.ID, d.Solution.Title)
		if d.SourceURL != "" {
			fmt.Fprintf(w, "    %s\n", d.SourceURL)
		}
	}
}
