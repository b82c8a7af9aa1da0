package main

import "github.com/fwojciec/rangegrab"

// Run executes the work command.
func (c *WorkCmd) Run(deps *Dependencies) error {
	if deps.Worker == nil {
		return rangegrab.Errorf(rangegrab.EINTERNAL, "worker not configured")
	}
	return deps.Worker.Run(deps.Ctx)
}
