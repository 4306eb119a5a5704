// Package enumerate implements the LCP-interval bottom-up traversal
// that turns a suffix.Index into a deduplicated set of candidate
// sequence pairs.
package enumerate

import (
	"sort"

	"github.com/Yatin-Singla/pgraph-tascel/internal/suffix"
)

// Pair is a candidate sequence-pair, always stored with the smaller
// sequence id first.
type Pair struct {
	A, B int32
}

// interval is an LCP-interval {lcp, lb, rb, children}. children are
// the intervals nested directly inside it, in SA order.
type interval struct {
	lcp      int32
	lb, rb   int
	children []*interval
}

// BottomUp runs the Abouelhoda-style bottom-up traversal over idx's
// [BupStart, BupStop) range, maintaining a stack of open intervals,
// and returns the deduplicated candidate pair set whose members clear
// emCutoff.
func BottomUp(idx *suffix.Index, emCutoff int) []Pair {
	if idx.BupStop-idx.BupStart < 2 {
		return nil
	}

	root := buildTree(idx.LCP, idx.BupStart, idx.BupStop)

	pairs := make(map[Pair]struct{})
	var walk func(n *interval)
	walk = func(n *interval) {
		emit(idx, n, emCutoff, pairs)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return sortedPairs(pairs)
}

// sortedPairs flattens a pair set into a stable, sorted slice. Both
// BottomUp and RecursiveTree build into a map for deduplication and
// sort once at the end.
func sortedPairs(pairs map[Pair]struct{}) []Pair {
	out := make([]Pair, 0, len(pairs))
	for p := range pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// buildTree constructs the LCP-interval tree over [start, stop) via a
// single left-to-right scan with a stack of open intervals: closing
// any interval whose lcp exceeds the current LCP[i] (recording its
// lb/rb), attaching each closed interval to the interval beneath it on
// the stack -- unless LCP[i] falls strictly between the two, in which
// case the closed interval is held as `last` and adopted by the
// interval newly opened at LCP[i], which sits between them.
func buildTree(lcp []int32, start, stop int) *interval {
	stack := []*interval{{lcp: 0, lb: start}}
	var last *interval

	for i := start + 1; i < stop; i++ {
		lb := i - 1
		for lcp[i] < stack[len(stack)-1].lcp {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.rb = i - 1
			last = top
			lb = top.lb
			if lcp[i] <= stack[len(stack)-1].lcp {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, last)
				last = nil
			}
		}
		if lcp[i] > stack[len(stack)-1].lcp {
			nv := &interval{lcp: lcp[i], lb: lb}
			if last != nil {
				nv.children = append(nv.children, last)
				last = nil
			}
			stack = append(stack, nv)
		}
	}
	for len(stack) > 1 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		top.rb = stop - 1
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, top)
	}
	root := stack[0]
	root.rb = stop - 1
	return root
}

// emit skips intervals below the cutoff; for leaves (no children), it
// iterates all (i, j) with i < j in [lb, rb]. For internal nodes, the
// cross product of the child intervals (singletons included): i walks
// the full range while the inner cursor j starts just past the child
// containing i -- tracked by a single advancing child index, since
// children are in SA order -- and then runs continuously to rb. Pairs
// entirely inside one child are left to that child's own emit call;
// pairs across two children, and child-versus-singleton pairs, are
// generated here, at this interval's match length.
func emit(idx *suffix.Index, n *interval, cutoff int, pairs map[Pair]struct{}) {
	if int(n.lcp) < cutoff {
		return
	}
	if len(n.children) == 0 {
		for i := n.lb; i <= n.rb; i++ {
			for j := i + 1; j <= n.rb; j++ {
				pairCheck(idx, i, j, pairs)
			}
		}
		return
	}
	child := 0
	for i := n.lb; i <= n.rb; i++ {
		j := i + 1
		if child < len(n.children) && i >= n.children[child].lb {
			j = n.children[child].rb + 1
			if i >= n.children[child].rb {
				child++
			}
		}
		for ; j <= n.rb; j++ {
			pairCheck(idx, i, j, pairs)
		}
	}
}

// pairCheck implements pair_check(i, j): the Burrows-Wheeler
// left-maximality filter. It emits (SID[SA[i]], SID[SA[j]]), smaller
// id first, iff the two suffixes belong to different sequences and
// either their preceding characters differ or the left context is a
// sequence boundary (BWT == sentinel), which would otherwise make this
// pair a redundant extension of a shorter maximal match already
// emitted elsewhere.
func pairCheck(idx *suffix.Index, i, j int, pairs map[Pair]struct{}) {
	sidA := idx.SID[idx.SA[i]]
	sidB := idx.SID[idx.SA[j]]
	if sidA == sidB {
		return
	}
	if idx.BWT[i] == idx.BWT[j] && idx.BWT[i] != idx.Sentinel {
		return
	}
	if sidA > sidB {
		sidA, sidB = sidB, sidA
	}
	pairs[Pair{A: sidA, B: sidB}] = struct{}{}
}
