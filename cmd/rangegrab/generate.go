package main

import (
	"bufio"
	"fmt"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/fs"
)

// Run executes the generate command.
func (c *GenerateCmd) Run(deps *Dependencies) error {
	if c.Range < 1 || c.Range > rangegrab.MaxRunLength {
		err := rangegrab.Errorf(rangegrab.EINVALID, "range should be positive and at most %d", rangegrab.MaxRunLength)
		fmt.Fprintf(deps.Stderr, "error: %s\n", rangegrab.ErrorMessage(err))
		return err
	}

	start, err := rangegrab.ParseItemID(c.Start)
	if err != nil {
		return err
	}
	end, err := rangegrab.ParseItemID(c.End)
	if err != nil {
		return err
	}

	alphabet := rangegrab.CurrentAlphabet
	if c.LegacyAlphabet {
		alphabet = rangegrab.LegacyAlphabet
	}

	excl := rangegrab.ExclusionSet{}
	for _, path := range c.ExclusionFile {
		if err := fs.ReadExclusionFile(path, rangegrab.ParseItemID, excl); err != nil {
			return err
		}
	}
	for _, path := range c.ExclusionFile62 {
		if err := fs.ReadExclusionFile(path, alphabet.Decode, excl); err != nil {
			return err
		}
	}

	runs, err := rangegrab.Runs(start, end, excl, c.Range)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rangegrab.ErrorMessage(err))
		return err
	}

	w := bufio.NewWriter(deps.Stdout)
	for r := range runs {
		fmt.Fprintln(w, alphabet.FormatRange(r))
	}
	return w.Flush()
}
