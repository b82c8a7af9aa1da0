package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/fs"
)

// Run executes the queue command. It holds the min ID file lock for the whole
// run and refuses to start after an earlier failed enqueue. The queue is only
// opened once the local state has been read, and the stored ID advances
// before enqueueing so a crash never queues a range twice.
func (c *QueueCmd) Run(deps *Dependencies) (err error) {
	if c.Range < 1 || c.Range > rangegrab.MaxRunLength {
		return rangegrab.Errorf(rangegrab.EINVALID, "range should be positive and at most %d", rangegrab.MaxRunLength)
	}

	state := fs.MinIDFile{Path: c.MinIDFile}
	unlock, err := state.Lock()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, unlock()) }()

	if state.Failed() {
		return rangegrab.Errorf(rangegrab.ECONFLICT, "failure sentinel %s-fail exists", c.MinIDFile)
	}

	last, err := state.Read()
	if err != nil {
		return err
	}
	top, err := rangegrab.CurrentAlphabet.Decode(c.MaxCode)
	if err != nil {
		return err
	}

	next := last + 1
	if top < next {
		deps.Logger.Info("no new item IDs", "next", next, "max", top)
		return nil
	}
	deps.Logger.Info("queueing items", "next", next, "max", top)

	runs, err := rangegrab.Runs(next, top, nil, c.Range)
	if err != nil {
		return err
	}
	var names bytes.Buffer
	for r := range runs {
		fmt.Fprintln(&names, rangegrab.CurrentAlphabet.FormatRange(r))
	}

	queue, err := openQueue(deps)
	if err != nil {
		return err
	}

	if err := state.Save(top); err != nil {
		return fmt.Errorf("save min id: %w", err)
	}

	n, err := queue.Enqueue(deps.Ctx, &names)
	if err != nil {
		return errors.Join(fmt.Errorf("enqueue: %w", err), state.MarkFailed())
	}
	fmt.Fprintf(deps.Stdout, "Queued %d batches into %s\n", n, c.Project)
	return nil
}

func openQueue(deps *Dependencies) (Queue, error) {
	if deps.OpenQueue != nil {
		return deps.OpenQueue()
	}
	if deps.Queue == nil {
		return nil, rangegrab.Errorf(rangegrab.EINTERNAL, "no queue configured")
	}
	return deps.Queue, nil
}
