package main

import (
	radarhttp "github.com/chen893/radar/http"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	srv := radarhttp.NewServer(deps.Bus, deps.Bus, deps.Logger)
	if err := srv.ListenAndServe(deps.Ctx, c.Addr); err != nil {
		return report(deps, err)
	}
	return nil
}
