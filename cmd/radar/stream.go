package main

import (
	"fmt"
	"strings"

	"github.com/chen893/radar"
)

// Run executes the stream command.
func (c *StreamCmd) Run(deps *Dependencies) error {
	info := deps.Orchestrator.PageInfo(deps.Ctx, c.URL)
	if !info.Allowed {
		return report(deps, radar.Errorf(radar.EFORBIDDEN, "%s: %s. Use 'radar settings set --authorize' to allow it", c.URL, info.Reason))
	}

	tab, err := c.tab(c.URL)
	if err != nil {
		return report(deps, err)
	}
	result, err := deps.Pages.ExtractPage(deps.Ctx, tab)
	if err != nil {
		return report(deps, classify(err))
	}

	cfg, err := deps.Config.Config(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return report(deps, radar.NewTaskError(radar.EAPIKEYMISSING, ""))
	}
	analyzer, err := deps.Analyzers(cfg.LLM)
	if err != nil {
		return report(deps, classify(err))
	}

	// The configured system prompt asks for JSON. Streams use the default brief.
	text := deps.Orchestrator.PreparePrompt(deps.Ctx, result.Text())
	err = analyzer.Stream(deps.Ctx, text, "", func(chunk string) error {
		_, err := fmt.Fprint(deps.Stdout, chunk)
		return err
	})
	fmt.Fprintln(deps.Stdout)
	if err != nil {
		return report(deps, classify(err))
	}
	return nil
}
