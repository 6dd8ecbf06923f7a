package flicker_test

import (
	"testing"
	"time"

	"github.com/rollcallhq/presence/internal/presence/flicker"
	"github.com/stretchr/testify/require"
)

const delta = 100 * time.Millisecond

// expectedBits builds the true sequence ending at now for a given offset.
func expectedBits(seed int32, now time.Time, length int, offset int) []int {
	iNow := now.UnixMilli() / delta.Milliseconds()
	bits := make([]int, length)
	for j := range bits {
		bits[j] = flicker.Bit(seed, iNow+int64(offset)-int64(length-1-j))
	}
	return bits
}

func TestBitIsDeterministic(t *testing.T) {
	t.Parallel()

	seed := flicker.Seed("lecture-42", "start")
	for i := int64(0); i < 64; i++ {
		first := flicker.Bit(seed, i)
		require.Equal(t, first, flicker.Bit(seed, i))
		require.Contains(t, []int{0, 1}, first)
	}
}

func TestSeedVariesWithSessionAndPhase(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, flicker.Seed("lecture-42", "start"), flicker.Seed("lecture-42", "end"))
	require.NotEqual(t, flicker.Seed("lecture-42", "start"), flicker.Seed("lecture-43", "start"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	seed := flicker.Seed("lecture-42", "start")
	now := time.UnixMilli(1_756_700_000_000)

	t.Run("exact sequence accepted", func(t *testing.T) {
		bits := expectedBits(seed, now, 32, 0)
		result := flicker.Validate(bits, seed, delta, now, flicker.Params{})
		require.True(t, result.Matched)
		require.Equal(t, 32, result.Matches)
		require.Equal(t, 0, result.Offset)
	})

	t.Run("lagged sequence accepted at negative offset", func(t *testing.T) {
		bits := expectedBits(seed, now, 32, -2)
		result := flicker.Validate(bits, seed, delta, now, flicker.Params{})
		require.True(t, result.Matched)
		require.Equal(t, -2, result.Offset)
	})

	t.Run("noise within threshold accepted", func(t *testing.T) {
		bits := expectedBits(seed, now, 32, 0)
		bits[3] ^= 1
		bits[9] ^= 1

		result := flicker.Validate(bits, seed, delta, now, flicker.Params{})
		require.True(t, result.Matched)
		require.GreaterOrEqual(t, result.Matches, result.Needed)
	})

	t.Run("too many mismatches rejected with progress", func(t *testing.T) {
		bits := expectedBits(seed, now, 32, 0)
		for i := range bits {
			bits[i] ^= 1
		}

		result := flicker.Validate(bits, seed, delta, now, flicker.Params{})
		require.False(t, result.Matched)
		require.Equal(t, 30, result.Needed)
		require.Less(t, result.Matches, result.Needed)
	})

	t.Run("offset beyond window rejected", func(t *testing.T) {
		bits := expectedBits(seed, now, 32, -flicker.DefaultWindow)
		result := flicker.Validate(bits, seed, delta, now, flicker.Params{})
		require.False(t, result.Matched)
	})
}
