package main

import (
	"context"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/fs"
	"golang.org/x/sync/errgroup"
)

// Run executes the grab command. The grabber stops between jobs once ctx is
// done or the stop file is touched.
func (c *GrabCmd) Run(deps *Dependencies) error {
	if deps.Grabber == nil {
		return rangegrab.Errorf(rangegrab.EINTERNAL, "grabber not configured")
	}

	ctx, cancel := context.WithCancel(deps.Ctx)
	defer cancel()

	stop := fs.StopFile{Path: c.StopFile, Since: deps.Now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return deps.Grabber.Run(ctx)
	})
	g.Go(func() error {
		return stop.Watch(ctx, func() {
			deps.Logger.Info("stop file touched, finishing current job", "path", c.StopFile)
			cancel()
		})
	})
	return g.Wait()
}
