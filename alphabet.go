package rangegrab

import (
	"math"
	"strconv"
	"strings"
)

// ItemID is a position in the dense integer ID space.
type ItemID uint64

// Alphabet is an ordered set of 62 distinct characters defining a
// positional numeral system. Two alphabets exist and they are not
// interchangeable: decoding with the wrong one silently yields a different ID.
type Alphabet struct {
	name  string
	chars string
	sep   byte
	index [256]int8
}

// Alphabets in use.
var (
	// LegacyAlphabet sorts upper case before lower case and separates
	// range halves with ','.
	LegacyAlphabet = newAlphabet("legacy", "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz", ',')

	// CurrentAlphabet sorts lower case before upper case and separates
	// range halves with ':'.
	CurrentAlphabet = newAlphabet("current", "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ", ':')
)

func newAlphabet(name, chars string, sep byte) Alphabet {
	a := Alphabet{name: name, chars: chars, sep: sep}
	for i := range a.index {
		a.index[i] = -1
	}
	for i := 0; i < len(chars); i++ {
		a.index[chars[i]] = int8(i)
	}
	return a
}

// Name returns "legacy" or "current".
func (a Alphabet) Name() string { return a.name }

// Chars returns the alphabet's characters in digit order.
func (a Alphabet) Chars() string { return a.chars }

// Separator returns the character joining the two halves of a range.
func (a Alphabet) Separator() byte { return a.sep }

// Encode converts id to its code. Zero encodes as the alphabet's first
// character, never as the empty string.
func (a Alphabet) Encode(id ItemID) string {
	if id == 0 {
		return a.chars[:1]
	}
	base := ItemID(len(a.chars))

	// 64 bits need at most 11 base-62 digits.
	var buf [11]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = a.chars[id%base]
		id /= base
	}
	return string(buf[i:])
}

// Decode converts a code back to its ID, most significant character first.
// Returns EINVALID for an empty code or one that overflows 64 bits, and
// ECHARACTER when the code contains a character outside the alphabet.
func (a Alphabet) Decode(s string) (ItemID, error) {
	if s == "" {
		return 0, Errorf(EINVALID, "empty code")
	}
	base := uint64(len(a.chars))

	var n uint64
	for i := 0; i < len(s); i++ {
		d := a.index[s[i]]
		if d < 0 {
			return 0, Errorf(ECHARACTER, "character %q at position %d not in %s alphabet", s[i], i, a.name)
		}
		if n > (math.MaxUint64-uint64(d))/base {
			return 0, Errorf(EINVALID, "code %q overflows the ID space", s)
		}
		n = n*base + uint64(d)
	}
	return ItemID(n), nil
}

// AlphabetByName returns the alphabet called "legacy" or "current".
func AlphabetByName(name string) (Alphabet, error) {
	switch name {
	case LegacyAlphabet.name:
		return LegacyAlphabet, nil
	case CurrentAlphabet.name, "":
		return CurrentAlphabet, nil
	}
	return Alphabet{}, Errorf(EINVALID, "unknown alphabet %q", name)
}

// ParseItemID parses a base-10 item ID. Negative values are rejected.
func ParseItemID(s string) (ItemID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return 0, Errorf(EINVALID, "item id %q is negative", s)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, Errorf(EINVALID, "item id %q is not a base-10 integer", s)
	}
	return ItemID(n), nil
}
