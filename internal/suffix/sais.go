// Package suffix implements the suffix-array + LCP + BWT builder over
// the packed, sentinel-delimited buffer internal/seqstore produces.
package suffix

import "sort"

// BuildSuffixArray returns SA[0..n-1] such that T[SA[i]..] is the
// i-th smallest suffix of t lexicographically. Prefix-doubling
// (Manber-Myers) rank sort, O(n log^2 n).
func BuildSuffixArray(t []byte) []int32 {
	n := len(t)
	sa := make([]int32, n)
	rank := make([]int32, n)
	next := make([]int32, n)
	for i := 0; i < n; i++ {
		sa[i] = int32(i)
		rank[i] = int32(t[i])
	}
	if n <= 1 {
		return sa
	}

	rankAt := func(i int32) int32 {
		if int(i) >= n {
			return -1
		}
		return rank[i]
	}

	for k := 1; ; k *= 2 {
		less := func(a, b int32) bool {
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return rankAt(a+int32(k)) < rankAt(b+int32(k))
		}
		sort.Slice(sa, func(i, j int) bool { return less(sa[i], sa[j]) })

		next[sa[0]] = 0
		for i := 1; i < n; i++ {
			next[sa[i]] = next[sa[i-1]]
			if less(sa[i-1], sa[i]) {
				next[sa[i]]++
			}
		}
		copy(rank, next)

		if int(rank[sa[n-1]]) == n-1 || k >= n {
			break
		}
	}
	return sa
}
