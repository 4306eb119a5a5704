package enumerate

import (
	"regexp"

	"github.com/Yatin-Singla/pgraph-tascel/internal/suffix"
)

// beginMarker stands in for a designated BEGIN marker used when a
// suffix starts a sequence and therefore has no left context. 0x00
// never appears as a real sequence byte, so it is safe to reuse as
// the marker.
const beginMarker = 0x00

// recordSeparator is the '#' byte that closes a record header in the
// packed ">id#SEQUENCE<delim>" form; like the sentinel, seeing it to
// the left of a suffix means the suffix starts its sequence.
const recordSeparator = '#'

// RecursiveTree is the suffix-tree alternative to BottomUp: instead of a
// single left-to-right LCP-interval scan, it partitions the suffix
// set recursively by the next differing character (a trie over the
// alphabet, one level per depth) down to maxDepth, and at each split
// computes lset -- the suffixes grouped by the character immediately
// to their left -- emitting a pair for every cross-lset-class
// combination plus every pair within the BEGIN class. This reproduces
// BottomUp's Burrows-Wheeler left-maximality filter without ever
// materializing a BWT array.
func RecursiveTree(idx *suffix.Index, maxDepth int) []Pair {
	if maxDepth <= 0 {
		return nil
	}
	positions := make([]int32, 0, idx.BupStop-idx.BupStart)
	for i := idx.BupStart; i < idx.BupStop; i++ {
		positions = append(positions, idx.SA[i])
	}
	pairs := make(map[Pair]struct{})
	partition(idx, positions, 0, maxDepth, pairs)
	return sortedPairs(pairs)
}

// partition groups positions sharing a common prefix of length depth
// by their next character and recurses into each group, until either
// the group can no longer be split (fewer than two members) or
// maxDepth is reached -- at which point the group is a "bucket" whose
// pairs are emitted via its lset classes.
func partition(idx *suffix.Index, positions []int32, depth, maxDepth int, pairs map[Pair]struct{}) {
	if len(positions) < 2 {
		return
	}
	if depth >= maxDepth {
		emitLset(idx, positions, pairs)
		return
	}
	groups := make(map[byte][]int32)
	for _, p := range positions {
		off := int(p) + depth
		if off >= len(idx.T) {
			continue
		}
		b := idx.T[off]
		groups[b] = append(groups[b], p)
	}
	for _, g := range groups {
		partition(idx, g, depth+1, maxDepth, pairs)
	}
}

// emitLset computes lset for a bucket (grouping by the character
// immediately to the left of each suffix, or beginMarker at a
// sequence start) and emits a pair for every combination of distinct
// classes plus every pair within the BEGIN class itself.
func emitLset(idx *suffix.Index, positions []int32, pairs map[Pair]struct{}) {
	lset := make(map[byte][]int32)
	for _, p := range positions {
		var c byte
		switch {
		case p == 0, idx.T[p-1] == idx.Sentinel, idx.T[p-1] == recordSeparator:
			c = beginMarker
		default:
			c = idx.T[p-1]
		}
		lset[c] = append(lset[c], p)
	}

	classes := make([]byte, 0, len(lset))
	for c := range lset {
		classes = append(classes, c)
	}
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			crossEmit(idx, lset[classes[i]], lset[classes[j]], pairs)
		}
	}
	if begin := lset[beginMarker]; len(begin) > 1 {
		for i := 0; i < len(begin); i++ {
			for j := i + 1; j < len(begin); j++ {
				pairCheckPositions(idx, begin[i], begin[j], pairs)
			}
		}
	}
}

func crossEmit(idx *suffix.Index, as, bs []int32, pairs map[Pair]struct{}) {
	for _, a := range as {
		for _, b := range bs {
			pairCheckPositions(idx, a, b, pairs)
		}
	}
}

// BucketedTree is the distributed-shaped variant of RecursiveTree: the
// traversal range's suffixes are first split into window_size k-mer
// buckets (invalid suffixes -- k-mers touching a sentinel or header
// byte -- filtered before insertion), buckets matching a SkipPrefixes
// pattern are discarded, and the partition/lset pass then runs per
// bucket. Each bucket's members already share their full k-mer, so
// partitioning resumes at depth windowSize rather than 0.
func BucketedTree(idx *suffix.Index, alphabet string, windowSize, maxDepth int, skip []*regexp.Regexp) []Pair {
	if maxDepth <= 0 {
		return nil
	}
	b := NewBuckets(alphabet, windowSize)
	for i := idx.BupStart; i < idx.BupStop; i++ {
		b.Insert(idx.T, idx.SA[i])
	}
	b.ApplySkipPrefixes(skip)

	pairs := make(map[Pair]struct{})
	for _, bucket := range b.All() {
		if len(bucket.Suffixes) < 2 {
			continue
		}
		if maxDepth <= windowSize {
			emitLset(idx, bucket.Suffixes, pairs)
			continue
		}
		partition(idx, bucket.Suffixes, windowSize, maxDepth, pairs)
	}
	return sortedPairs(pairs)
}

// pairCheckPositions is RecursiveTree's analogue of BottomUp's
// pairCheck: sequence ids differ by construction here (same-class
// positions already share their full prefix down to maxDepth, and
// cross-class positions by definition have differing left context),
// so only the distinct-sequence test remains.
func pairCheckPositions(idx *suffix.Index, posA, posB int32, pairs map[Pair]struct{}) {
	sidA := idx.SID[posA]
	sidB := idx.SID[posB]
	if sidA == sidB {
		return
	}
	if sidA > sidB {
		sidA, sidB = sidB, sidA
	}
	pairs[Pair{A: sidA, B: sidB}] = struct{}{}
}
