package rangegrab_test

import (
	"math"
	"testing"

	"github.com/fwojciec/rangegrab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet_Encode(t *testing.T) {
	t.Parallel()

	t.Run("zero encodes as first character", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "0", rangegrab.LegacyAlphabet.Encode(0))
		assert.Equal(t, "0", rangegrab.CurrentAlphabet.Encode(0))
	})

	t.Run("alphabets order letters differently", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "A", rangegrab.LegacyAlphabet.Encode(10))
		assert.Equal(t, "a", rangegrab.CurrentAlphabet.Encode(10))
		assert.Equal(t, "a", rangegrab.LegacyAlphabet.Encode(36))
		assert.Equal(t, "A", rangegrab.CurrentAlphabet.Encode(36))
	})

	t.Run("encodes multi-digit values most significant first", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "10", rangegrab.LegacyAlphabet.Encode(62))
		assert.Equal(t, "40000", rangegrab.LegacyAlphabet.Encode(4*62*62*62*62))
		assert.Equal(t, "zz", rangegrab.LegacyAlphabet.Encode(62*62-1))
	})
}

func TestAlphabet_Decode(t *testing.T) {
	t.Parallel()

	t.Run("decodes positional value", func(t *testing.T) {
		t.Parallel()

		id, err := rangegrab.LegacyAlphabet.Decode("40000")
		require.NoError(t, err)
		assert.Equal(t, rangegrab.ItemID(59105344), id)
	})

	t.Run("wrong alphabet yields a different ID", func(t *testing.T) {
		t.Parallel()

		legacy, err := rangegrab.LegacyAlphabet.Decode("a")
		require.NoError(t, err)
		current, err := rangegrab.CurrentAlphabet.Decode("a")
		require.NoError(t, err)

		assert.Equal(t, rangegrab.ItemID(36), legacy)
		assert.Equal(t, rangegrab.ItemID(10), current)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		t.Parallel()

		_, err := rangegrab.CurrentAlphabet.Decode("")
		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
	})

	t.Run("rejects character outside alphabet", func(t *testing.T) {
		t.Parallel()

		_, err := rangegrab.CurrentAlphabet.Decode("ab-c")
		assert.Equal(t, rangegrab.ECHARACTER, rangegrab.ErrorCode(err))
		assert.Contains(t, rangegrab.ErrorMessage(err), "position 2")
	})

	t.Run("rejects non-ASCII input", func(t *testing.T) {
		t.Parallel()

		_, err := rangegrab.CurrentAlphabet.Decode("aé")
		assert.Equal(t, rangegrab.ECHARACTER, rangegrab.ErrorCode(err))
	})

	t.Run("rejects codes that overflow 64 bits", func(t *testing.T) {
		t.Parallel()

		_, err := rangegrab.LegacyAlphabet.Decode("zzzzzzzzzzzz")
		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
	})
}

func TestAlphabet_RoundTrip(t *testing.T) {
	t.Parallel()

	max, err := rangegrab.LegacyAlphabet.Decode("40000")
	require.NoError(t, err)

	for _, a := range []rangegrab.Alphabet{rangegrab.LegacyAlphabet, rangegrab.CurrentAlphabet} {
		t.Run(a.Name(), func(t *testing.T) {
			t.Parallel()

			for id := rangegrab.ItemID(0); id < 10000; id++ {
				got, err := a.Decode(a.Encode(id))
				require.NoError(t, err)
				require.Equal(t, id, got)
			}
			for id := rangegrab.ItemID(10000); id < max; id += 7919 {
				got, err := a.Decode(a.Encode(id))
				require.NoError(t, err)
				require.Equal(t, id, got)
			}

			got, err := a.Decode(a.Encode(math.MaxUint64))
			require.NoError(t, err)
			assert.Equal(t, rangegrab.ItemID(math.MaxUint64), got)
		})
	}
}

func TestAlphabetByName(t *testing.T) {
	t.Parallel()

	a, err := rangegrab.AlphabetByName("legacy")
	require.NoError(t, err)
	assert.Equal(t, rangegrab.LegacyAlphabet, a)

	a, err = rangegrab.AlphabetByName("")
	require.NoError(t, err)
	assert.Equal(t, rangegrab.CurrentAlphabet, a)

	_, err = rangegrab.AlphabetByName("base64")
	assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
}

func TestParseItemID(t *testing.T) {
	t.Parallel()

	t.Run("parses base-10 integers", func(t *testing.T) {
		t.Parallel()

		id, err := rangegrab.ParseItemID(" 59105344\n")
		require.NoError(t, err)
		assert.Equal(t, rangegrab.ItemID(59105344), id)
	})

	t.Run("rejects negative integers", func(t *testing.T) {
		t.Parallel()

		_, err := rangegrab.ParseItemID("-1")
		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		t.Parallel()

		_, err := rangegrab.ParseItemID("1e3")
		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
	})
}
