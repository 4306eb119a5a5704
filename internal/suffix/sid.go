package suffix

import "github.com/pkg/errors"

// ScanSID scans t from the left and assigns every position the index
// of the sequence it belongs to, along with that sequence's [begin,
// end) residue byte range. t is expected in the packed
// ">id#SEQUENCE<delim>" form internal/seqstore produces: a run starts
// at '>', the id ends at the next '#', and
// the residues run from there to the next delim byte, inclusive of
// the delim itself. begin/end bound only the residues, excluding both
// the ">id#" header and the trailing delim -- the same split
// seqstore.Store.Get exposes -- while sid still covers every byte in
// the run, header included, so every position in t resolves to some
// sequence.
//
// If t has no leading '>' (a bare delim-joined byte buffer rather than
// a full packed record stream), ScanSID falls back to treating each
// delim-terminated span as one sequence in its entirety.
func ScanSID(t []byte, delim byte) (sid, begin, end []int32) {
	n := len(t)
	sid = make([]int32, n)
	if n == 0 {
		return sid, begin, end
	}
	if t[0] != '>' {
		return scanSIDFlat(t, delim)
	}

	var cur int32
	pos := 0
	for pos < n {
		if t[pos] != '>' {
			return scanSIDFlat(t, delim)
		}
		runStart := pos
		pos++
		for pos < n && t[pos] != '#' {
			pos++
		}
		if pos >= n {
			return scanSIDFlat(t, delim)
		}
		pos++ // skip '#'
		seqStart := pos
		for pos < n && t[pos] != delim {
			pos++
		}
		if pos >= n {
			return scanSIDFlat(t, delim)
		}
		seqEnd := pos
		pos++ // skip delim
		for i := runStart; i < pos; i++ {
			sid[i] = cur
		}
		begin = append(begin, int32(seqStart))
		end = append(end, int32(seqEnd))
		cur++
	}
	return sid, begin, end
}

// scanSIDFlat is the plain delim-to-delim fallback: each span between
// sentinels (sentinel included) is its own sequence in full.
func scanSIDFlat(t []byte, delim byte) (sid, begin, end []int32) {
	n := len(t)
	sid = make([]int32, n)
	var curBegin int32
	var cur int32
	for i := 0; i < n; i++ {
		sid[i] = cur
		if t[i] == delim {
			begin = append(begin, curBegin)
			end = append(end, int32(i))
			cur++
			curBegin = int32(i + 1)
		}
	}
	return sid, begin, end
}

// BuildBWT computes BWT[i] = T[SA[i]-1], or sentinel if SA[i]==0.
func BuildBWT(t []byte, sa []int32, sentinel byte) []byte {
	bwt := make([]byte, len(sa))
	for i, s := range sa {
		if s == 0 {
			bwt[i] = sentinel
		} else {
			bwt[i] = t[s-1]
		}
	}
	return bwt
}

// ErrNoSentinel is returned by Build when t contains no delim byte at
// all -- truncated input.
var ErrNoSentinel = errors.New("suffix: no sentinel found in input (truncated?)")
