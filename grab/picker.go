package grab

import (
	"math/rand/v2"
	"sync"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/bloom"
)

// DefaultLimit is the largest ID picked by default: "40000" in the legacy
// alphabet.
const DefaultLimit rangegrab.ItemID = 4 * 62 * 62 * 62 * 62

// Picker hands out random IDs in [0, Limit], steering away from IDs it has
// already handed out. A Bloom filter remembers them, so a never-picked ID is
// occasionally passed over; picks are random anyway. It is safe for
// concurrent use.
type Picker struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	limit rangegrab.ItemID

	// Tries bounds the draws spent looking for an unseen ID before a seen
	// one is accepted.
	Tries int
	// Rand returns a uniform value in [0, n). Defaults to math/rand/v2.
	Rand func(n uint64) uint64
}

// NewPicker creates a Picker over [0, limit] expecting about n picks.
func NewPicker(limit rangegrab.ItemID, n uint) *Picker {
	return &Picker{
		seen:  bloom.NewFilter(n, 0.001),
		limit: limit,
		Tries: 16,
	}
}

// Limit returns the largest ID the picker hands out.
func (p *Picker) Limit() rangegrab.ItemID { return p.limit }

// Pick returns the next ID and remembers it.
func (p *Picker) Pick() rangegrab.ItemID {
	p.mu.Lock()
	defer p.mu.Unlock()

	draw := p.Rand
	if draw == nil {
		draw = rand.Uint64N
	}

	var id rangegrab.ItemID
	for i := 0; i < max(p.Tries, 1); i++ {
		id = rangegrab.ItemID(draw(uint64(p.limit) + 1))
		if !p.seen.Test(id) {
			break
		}
	}
	p.seen.Add(id)
	return id
}

// Seen returns true if id may have been picked before.
func (p *Picker) Seen(id rangegrab.ItemID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen.Test(id)
}
