// Package bloom provides approximate membership of item IDs using Bloom
// filters. It is only for places where a false positive is harmless, such as
// avoiding re-picking an ID; exclusion lists need an exact set.
package bloom

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/rangegrab"
)

// Filter wraps a Bloom filter of item IDs.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected IDs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds an ID to the filter.
func (f *Filter) Add(id rangegrab.ItemID) {
	f.f.Add(key(id))
}

// Test returns true if the ID might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(id rangegrab.ItemID) bool {
	return f.f.Test(key(id))
}

// TestAndAdd reports whether the ID might already be in the filter and adds it.
func (f *Filter) TestAndAdd(id rangegrab.ItemID) bool {
	return f.f.TestAndAdd(key(id))
}

// EstimatedCount returns the approximate number of IDs in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

func key(id rangegrab.ItemID) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}
