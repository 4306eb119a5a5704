package suffix

import "bytes"

// Index is the full build output: suffix array, clamped LCP array,
// BWT, per-position sequence id, and per-sequence [begin,end) ranges,
// plus the [BupStart, BupStop) traversal range the bottom-up
// enumerator should scan, excluding the sentinel-only suffixes outside
// it.
type Index struct {
	T        []byte
	SA       []int32
	LCP      []int32
	BWT      []byte
	SID      []int32
	Begin    []int32
	End      []int32
	BupStart int
	BupStop  int
	Sentinel byte
}

// Build runs the full suffix/LCP/BWT pipeline over t (a packed,
// delim-terminated multi-sequence buffer, as internal/seqstore
// produces).
func Build(t []byte, delim byte) (*Index, error) {
	if bytes.IndexByte(t, delim) < 0 {
		return nil, ErrNoSentinel
	}

	sa := BuildSuffixArray(t)
	rawLCP := BuildLCP(t, sa)
	sid, begin, end := ScanSID(t, delim)
	lcp := ClampLCP(rawLCP, sa, sid, end)
	bwt := BuildBWT(t, sa, delim)

	bupStart, bupStop := sentinelRange(t, sa, delim)

	return &Index{
		T: t, SA: sa, LCP: lcp, BWT: bwt, SID: sid,
		Begin: begin, End: end,
		BupStart: bupStart, BupStop: bupStop,
		Sentinel: delim,
	}, nil
}

// sentinelRange determines whether sentinel suffixes cluster at the
// start or the end of SA -- i.e. whether delim sorts below or above
// every other byte present in t -- and returns the [start, stop) range
// of SA that excludes whichever contiguous run they form. When t also
// carries record headers ('>' and '#' bytes, which straddle '$' in
// byte order), sentinel suffixes land mid-array instead; they are left
// in the range there, which is harmless because their clamped LCP is 0
// and so they never extend an interval past the cutoff.
func sentinelRange(t []byte, sa []int32, delim byte) (start, stop int) {
	n := len(sa)
	start, stop = 0, n
	for start < n && t[sa[start]] == delim {
		start++
	}
	for stop > start && t[sa[stop-1]] == delim {
		stop--
	}
	return start, stop
}
