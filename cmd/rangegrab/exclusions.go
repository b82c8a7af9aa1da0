package main

import (
	"fmt"

	"github.com/fwojciec/rangegrab/fs"
)

// Run executes the exclusions command.
func (c *ExclusionsCmd) Run(deps *Dependencies) error {
	for _, dir := range c.Dirs {
		names, err := fs.ArchiveItemNames(dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(deps.Stdout, name)
		}
	}
	return nil
}
