package main

import (
	"fmt"

	"github.com/fwojciec/rangegrab"
)

// Run executes the enqueue command.
func (c *EnqueueCmd) Run(deps *Dependencies) error {
	n, err := deps.Queue.Enqueue(deps.Ctx, deps.Stdin)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rangegrab.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Queued %d items into %s\n", n, c.Project)
	return nil
}
