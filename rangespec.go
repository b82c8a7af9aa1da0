package rangegrab

import (
	"iter"
	"strings"
)

// RangeSpec is a contiguous inclusive interval of item IDs.
type RangeSpec struct {
	Start ItemID `json:"start"`
	End   ItemID `json:"end"`
}

// Len returns the number of IDs in the range.
func (r RangeSpec) Len() uint64 {
	return uint64(r.End-r.Start) + 1
}

// Single reports whether the range names exactly one ID.
func (r RangeSpec) Single() bool {
	return r.Start == r.End
}

// Contains reports whether id lies within the range.
func (r RangeSpec) Contains(id ItemID) bool {
	return id >= r.Start && id <= r.End
}

// IDs yields every ID in the range in ascending order without
// materializing the range.
func (r RangeSpec) IDs() iter.Seq[ItemID] {
	return func(yield func(ItemID) bool) {
		for id := r.Start; ; id++ {
			if !yield(id) || id == r.End {
				return
			}
		}
	}
}

// FormatRange renders r as "<start><sep><end>", or as a single code when the
// range holds one ID.
func (a Alphabet) FormatRange(r RangeSpec) string {
	if r.Single() {
		return a.Encode(r.Start)
	}
	return a.Encode(r.Start) + string(a.sep) + a.Encode(r.End)
}

// ParseRange parses s using this alphabet and its separator. A string
// without the separator is a single-element range.
// Returns EMALFORMED if either half does not decode and EINVALID if the
// decoded start lies after the decoded end.
func (a Alphabet) ParseRange(s string) (RangeSpec, error) {
	startCode, endCode, found := strings.Cut(s, string(a.sep))
	if !found {
		endCode = startCode
	}

	start, err := a.Decode(startCode)
	if err != nil {
		return RangeSpec{}, Errorf(EMALFORMED, "range %q: start: %s", s, ErrorMessage(err))
	}
	end, err := a.Decode(endCode)
	if err != nil {
		return RangeSpec{}, Errorf(EMALFORMED, "range %q: end: %s", s, ErrorMessage(err))
	}
	if start > end {
		return RangeSpec{}, Errorf(EINVALID, "range %q: start %d after end %d", s, start, end)
	}
	return RangeSpec{Start: start, End: end}, nil
}

// ParseRange parses a batch name whose alphabet is implied by its
// separator: ',' selects the legacy alphabet, ':' or no separator selects
// the current one. Only input read from outside the process should go
// through this inference; everything else passes an explicit Alphabet.
func ParseRange(s string) (RangeSpec, Alphabet, error) {
	a := DetectAlphabet(s)
	r, err := a.ParseRange(s)
	return r, a, err
}

// DetectAlphabet returns the alphabet implied by the separator in s.
func DetectAlphabet(s string) Alphabet {
	switch {
	case strings.IndexByte(s, LegacyAlphabet.sep) >= 0:
		return LegacyAlphabet
	default:
		return CurrentAlphabet
	}
}
