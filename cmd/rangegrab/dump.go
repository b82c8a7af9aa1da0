package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fwojciec/rangegrab/redis"
)

// Run executes the dump done command.
func (c *DumpDoneCmd) Run(deps *Dependencies) error {
	w := bufio.NewWriter(deps.Stdout)
	if err := deps.Queue.DoneItems(deps.Ctx, func(name string) error {
		_, err := fmt.Fprintln(w, name)
		return err
	}); err != nil {
		return err
	}
	return w.Flush()
}

// Run executes the dump log command.
func (c *DumpLogCmd) Run(deps *Dependencies) error {
	w := bufio.NewWriter(deps.Stdout)
	if err := deps.Queue.LogEntries(deps.Ctx, c.ScrubUsername, writeLine(w)); err != nil {
		return err
	}
	return w.Flush()
}

// Run executes the dump archived-log command.
func (c *DumpArchivedLogCmd) Run(deps *Dependencies) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(deps.Stdout)
	if err := redis.ScrubLogs(f, c.ScrubUsername, writeLine(w)); err != nil {
		return err
	}
	return w.Flush()
}

func writeLine(w *bufio.Writer) func([]byte) error {
	return func(line []byte) error {
		if _, err := w.Write(line); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}
}
