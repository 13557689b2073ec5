package fulltext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreqReduction_SmallCorpusAlwaysOne(t *testing.T) {
	require.Equal(t, 1.0, FreqReduction(4, 1))
	require.Equal(t, 1.0, FreqReduction(0, 0))
}

func TestFreqReduction_MonotonicNonIncreasing(t *testing.T) {
	const n = 100
	prev := FreqReduction(n, 0)
	for k := 1; k <= n; k++ {
		cur := FreqReduction(n, k)
		require.LessOrEqualf(t, cur, prev, "freqReduction(%d, %d) should be <= freqReduction(%d, %d)", n, k, n, k-1)
		prev = cur
	}
}

func TestRepeatMultiply_CapsAtFour(t *testing.T) {
	require.Equal(t, 1.0, RepeatMultiply(1))
	require.Equal(t, 1.5, RepeatMultiply(2))
	require.Equal(t, 4.0, RepeatMultiply(100))
}

func TestRepeatMultiply_MonotonicNonDecreasing(t *testing.T) {
	prev := RepeatMultiply(1)
	for n := 2; n <= 20; n++ {
		cur := RepeatMultiply(n)
		require.GreaterOrEqualf(t, cur, prev, "repeatMultiply(%d) should be >= repeatMultiply(%d)", n, n-1)
		prev = cur
	}
}

func TestEntrySizeWeight_ShortDocumentUnweighted(t *testing.T) {
	require.Equal(t, 1.0, EntrySizeWeight(9))
	require.Greater(t, EntrySizeWeight(324), 1.0) // sqrt(324) = 18, the peak
}

func TestNeighbourWeight_ZeroDistanceIsMax(t *testing.T) {
	require.Equal(t, 30.0, NeighbourWeight(0))
	require.Less(t, NeighbourWeight(7), NeighbourWeight(0))
	require.Less(t, NeighbourWeight(14), NeighbourWeight(7))
}
