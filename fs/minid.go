package fs

import (
	"errors"
	"os"
	"strconv"

	"github.com/fwojciec/rangegrab"
)

// MinIDFile is the persisted high-water mark of the queueing tool: the last
// item ID already enqueued. Alongside it live an "-old" backup of the
// previous value, a "-fail" sentinel that blocks further runs after a failed
// enqueue, and a ".lock" file held for the duration of a run.
type MinIDFile struct {
	Path string
}

// Read returns the stored ID. A missing or unparsable file is an error the
// caller must treat as fatal: guessing a value would re-enqueue or skip work.
func (f MinIDFile) Read() (rangegrab.ItemID, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, err
	}
	id, err := rangegrab.ParseItemID(string(b))
	if err != nil {
		return 0, rangegrab.Errorf(rangegrab.EINVALID, "min id file %s: %s", f.Path, rangegrab.ErrorMessage(err))
	}
	return id, nil
}

// Save replaces the stored ID with id. The previous file is copied to the
// backup path first and the new value is renamed into place.
func (f MinIDFile) Save(id rangegrab.ItemID) error {
	old, err := os.ReadFile(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err == nil {
		if err := os.WriteFile(f.Path+"-old", old, 0644); err != nil {
			return err
		}
	}

	tmp := f.Path + "-new"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(uint64(id), 10)), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

// Failed reports whether the failure sentinel exists.
func (f MinIDFile) Failed() bool {
	_, err := os.Stat(f.Path + "-fail")
	return err == nil
}

// MarkFailed creates the failure sentinel.
func (f MinIDFile) MarkFailed() error {
	return os.WriteFile(f.Path+"-fail", nil, 0644)
}

// Lock takes the run lock. Returns ECONFLICT if another run holds it.
func (f MinIDFile) Lock() (unlock func() error, err error) {
	path := f.Path + ".lock"
	lf, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil, rangegrab.Errorf(rangegrab.ECONFLICT, "lock file %s exists", path)
	} else if err != nil {
		return nil, err
	}
	if err := lf.Close(); err != nil {
		return nil, err
	}
	return func() error { return os.Remove(path) }, nil
}
