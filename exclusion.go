package rangegrab

import "iter"

// MaxRunLength caps the number of IDs in one generated range.
const MaxRunLength = 100

// ExclusionSet is a set of IDs that must never be handed out. IDs read as
// base-10 integers and IDs read as codes are merged into the same set.
type ExclusionSet map[ItemID]struct{}

// Add inserts id into the set.
func (s ExclusionSet) Add(id ItemID) {
	s[id] = struct{}{}
}

// Contains reports whether id is excluded. A nil set excludes nothing.
func (s ExclusionSet) Contains(id ItemID) bool {
	_, ok := s[id]
	return ok
}

// Merge adds every ID of other to s.
func (s ExclusionSet) Merge(other ExclusionSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Runs walks [start, end] once and yields maximal runs of non-excluded IDs,
// each at most max IDs long, in ascending order. A run is closed by an
// excluded ID, by reaching max, or by reaching end; no run ever spans an
// excluded ID.
//
// Returns EINVALID before yielding anything if max is outside
// 1..MaxRunLength or start is after end.
func Runs(start, end ItemID, excl ExclusionSet, max int) (iter.Seq[RangeSpec], error) {
	if max < 1 || max > MaxRunLength {
		return nil, Errorf(EINVALID, "run length %d outside 1..%d", max, MaxRunLength)
	}
	if start > end {
		return nil, Errorf(EINVALID, "start %d after end %d", start, end)
	}

	return func(yield func(RangeSpec) bool) {
		var (
			run    RangeSpec
			length int
		)
		for id := start; ; id++ {
			if excl.Contains(id) {
				if length > 0 && !yield(run) {
					return
				}
				length = 0
			} else {
				if length == 0 {
					run.Start = id
				}
				run.End = id
				length++
				if length == max {
					if !yield(run) {
						return
					}
					length = 0
				}
			}

			if id == end {
				break
			}
		}
		if length > 0 {
			yield(run)
		}
	}, nil
}
