package rangegrab

import "fmt"

// MaxBatchSize is the ceiling on sub-items in one batch.
const MaxBatchSize = 100

// Status is the outcome of one sub-item.
type Status int

// Status values.
const (
	StatusPending Status = iota
	StatusSucceeded
	StatusSkipped
	StatusFailed
)

var statusNames = [...]string{"pending", "succeeded", "skipped", "failed"}

// String returns the lower-case status name.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return Errorf(EINVALID, "unknown status %q", b)
}

// Finished reports whether the sub-item needs no further attempts.
func (s Status) Finished() bool {
	return s == StatusSucceeded || s == StatusSkipped
}

// SubItem is the mutable outcome record of one fetchable target.
type SubItem struct {
	ID           ItemID
	Name         string
	Status       Status
	Attempts     int
	ArtifactPath string
}

// Batch is one unit of work handed out by the tracker. Its sub-items are an
// arena indexed by position: count and identity are fixed once expanded.
type Batch struct {
	Name     string
	Alphabet Alphabet
	Range    RangeSpec
	Items    []SubItem
}

// NewBatch parses a batch name received from outside the process, inferring
// its alphabet from the separator.
// Returns EMALFORMED or EINVALID for unparseable names and EINVALID when the
// range is larger than MaxBatchSize.
func NewBatch(name string) (*Batch, error) {
	r, a, err := ParseRange(name)
	if err != nil {
		return nil, err
	}
	return NewRangeBatch(a, r)
}

// NewRangeBatch returns a batch covering r under alphabet a.
func NewRangeBatch(a Alphabet, r RangeSpec) (*Batch, error) {
	if r.Start > r.End {
		return nil, Errorf(EINVALID, "start %d after end %d", r.Start, r.End)
	}
	if r.Len() > MaxBatchSize {
		return nil, Errorf(EINVALID, "batch of %d items exceeds limit of %d", r.Len(), MaxBatchSize)
	}
	return &Batch{
		Name:     a.FormatRange(r),
		Alphabet: a,
		Range:    r,
	}, nil
}

// Expand (re)builds the sub-item arena from the batch range, every item
// Pending with no attempts.
func (b *Batch) Expand() {
	b.Items = make([]SubItem, 0, b.Range.Len())
	for id := range b.Range.IDs() {
		b.Items = append(b.Items, SubItem{
			ID:   id,
			Name: b.Alphabet.Encode(id),
		})
	}
}

// Done reports whether every sub-item succeeded or was skipped.
func (b *Batch) Done() bool {
	for i := range b.Items {
		if !b.Items[i].Status.Finished() {
			return false
		}
	}
	return len(b.Items) > 0
}

// Count returns the number of sub-items with the given status.
func (b *Batch) Count(s Status) int {
	var n int
	for i := range b.Items {
		if b.Items[i].Status == s {
			n++
		}
	}
	return n
}

// Artifacts returns the artifact paths of succeeded sub-items in batch
// order. Skipped sub-items contribute nothing.
func (b *Batch) Artifacts() []string {
	var paths []string
	for i := range b.Items {
		item := &b.Items[i]
		if item.Status == StatusSucceeded && item.ArtifactPath != "" {
			paths = append(paths, item.ArtifactPath)
		}
	}
	return paths
}
