package suffix

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSACorrectnessIsSortedOrder(t *testing.T) {
	text := []byte("banana$")
	sa := BuildSuffixArray(text)
	require.Len(t, sa, len(text))
	for i := 1; i < len(sa); i++ {
		require.LessOrEqual(t, bytes.Compare(text[sa[i-1]:], text[sa[i]:]), 0,
			"SA not sorted at %d: %q > %q", i, text[sa[i-1]:], text[sa[i]:])
	}
}

func TestSACorrectnessRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []byte("ACGT")
	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(60)
		text := make([]byte, n)
		for i := range text {
			text[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text[n-1] = '$'
		sa := BuildSuffixArray(text)
		seen := make(map[int32]bool, n)
		for i := 1; i < n; i++ {
			require.LessOrEqual(t, bytes.Compare(text[sa[i-1]:], text[sa[i]:]), 0,
				"trial %d: SA not sorted at %d", trial, i)
			require.False(t, seen[sa[i]], "trial %d: SA has duplicate position %d", trial, sa[i])
			seen[sa[i]] = true
		}
	}
}

func TestLCPCorrectness(t *testing.T) {
	text := []byte("banana$")
	sa := BuildSuffixArray(text)
	lcp := BuildLCP(text, sa)
	require.EqualValues(t, 0, lcp[0])
	for i := 1; i < len(sa); i++ {
		want := commonPrefixLen(text[sa[i-1]:], text[sa[i]:])
		require.EqualValues(t, want, lcp[i], "LCP[%d]", i)
	}
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func TestClampLCPNeverSpansSentinel(t *testing.T) {
	// Two short sequences packed back to back with '$' sentinels.
	text := []byte("ACGT$ACGA$")
	idx, err := Build(text, '$')
	require.NoError(t, err)
	for i := 1; i < len(idx.LCP); i++ {
		a, b := idx.SA[i-1], idx.SA[i]
		remA := idx.End[idx.SID[a]] - a
		remB := idx.End[idx.SID[b]] - b
		require.LessOrEqual(t, idx.LCP[i], remA, "LCP[%d] spans a sentinel", i)
		require.LessOrEqual(t, idx.LCP[i], remB, "LCP[%d] spans a sentinel", i)
	}
}

func TestBWTInverseReconstructsText(t *testing.T) {
	texts := [][]byte{
		[]byte("banana$"),
		[]byte("ACGT$ACGA$CCCC$"),
		[]byte("mississippi$"),
	}
	for _, text := range texts {
		sa := BuildSuffixArray(text)
		bwt := BuildBWT(text, sa, '$')

		rebuilt := make([]byte, len(text))
		rebuilt[len(text)-1] = '$'
		for i, s := range sa {
			if s > 0 {
				rebuilt[s-1] = bwt[i]
			}
		}
		require.Equal(t, text, rebuilt, "BWT inverse mismatch")
	}
}

func TestScanSIDAssignsRangesAndSequentialIDs(t *testing.T) {
	text := []byte("ACGT$ACGA$CC$")
	sid, begin, end := ScanSID(text, '$')
	require.Equal(t, []int32{0, 5, 10}, begin)
	require.Equal(t, []int32{4, 9, 12}, end)
	for i := 0; i < 4; i++ {
		require.EqualValues(t, 0, sid[i], "position %d", i)
	}
	for i := 5; i < 9; i++ {
		require.EqualValues(t, 1, sid[i], "position %d", i)
	}
}

func TestScanSIDHeaderFormatSkipsIDAndHashMark(t *testing.T) {
	// Packed form: ">id#SEQUENCE$" repeated.
	text := []byte(">x#AAAAAAAA$>y#AAAAAAAA$>z#CCCC$")
	sid, begin, end := ScanSID(text, '$')
	require.Len(t, begin, 3)
	// ">x#" is 3 bytes, so x's residues start at offset 3 and run 8 bytes.
	require.EqualValues(t, 3, begin[0])
	require.EqualValues(t, 11, end[0])
	require.Equal(t, "AAAAAAAA", string(text[begin[0]:end[0]]))
	require.EqualValues(t, 0, sid[0], "header byte '>' at position 0 should carry sid 0")
	require.Equal(t, "CCCC", string(text[begin[2]:end[2]]))
}

func TestBuildRefusesWithoutSentinel(t *testing.T) {
	_, err := Build([]byte("ACGTACGT"), '$')
	require.ErrorIs(t, err, ErrNoSentinel)
}

func TestSentinelRangeSkipsSentinelSuffixes(t *testing.T) {
	// '$' (0x24) sorts below letters, so sentinel suffixes cluster at
	// the start of SA.
	text := []byte("ACGT$ACGA$")
	idx, err := Build(text, '$')
	require.NoError(t, err)
	for i := 0; i < idx.BupStart; i++ {
		require.EqualValues(t, '$', idx.T[idx.SA[i]], "expected sentinel suffix at SA[%d]", i)
	}
	for i := idx.BupStart; i < idx.BupStop; i++ {
		require.NotEqualValues(t, '$', idx.T[idx.SA[i]],
			"unexpected sentinel suffix inside traversal range at SA[%d]", i)
	}
}

func TestSentinelRangeWithHeaderBytesKeepsAllRealSuffixes(t *testing.T) {
	// With '>' (0x3E) and '#' (0x23) in the buffer, '$' (0x24) sorts
	// between them and sentinel suffixes land mid-array; the traversal
	// range must then cover everything rather than cutting off real
	// suffixes at either end.
	text := []byte(">x#TTTT$>y#TTTT$")
	idx, err := Build(text, '$')
	require.NoError(t, err)
	require.Equal(t, 0, idx.BupStart)
	require.Equal(t, len(idx.SA), idx.BupStop)
}
