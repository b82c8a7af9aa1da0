package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/rangegrab"
)

// ReadExclusions reads one item ID per line from r into set, converting each
// line with parse. Blank lines are ignored. The first unparsable line aborts
// the read.
func ReadExclusions(r io.Reader, parse func(string) (rangegrab.ItemID, error), set rangegrab.ExclusionSet) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		id, err := parse(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		set.Add(id)
	}
	return scanner.Err()
}

// ReadExclusionFile reads the exclusion list at path into set.
func ReadExclusionFile(path string, parse func(string) (rangegrab.ItemID, error), set rangegrab.ExclusionSet) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ReadExclusions(f, parse, set); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ArchiveItemNames lists the item names of the archives in dir. An archive
// is any file with an extension; its item name is the second
// dash-separated field of the file name. Files without one are skipped.
func ArchiveItemNames(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.*"))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, m := range matches {
		fields := strings.Split(filepath.Base(m), "-")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		names = append(names, fields[1])
	}
	return names, nil
}
