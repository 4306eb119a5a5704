package suffix

// BuildLCP computes the raw LCP array via Kasai's algorithm: LCP[0]=0,
// and for i>0, LCP[i] is the length of the common prefix of the
// suffixes at SA[i-1] and SA[i].
func BuildLCP(t []byte, sa []int32) []int32 {
	n := len(sa)
	lcp := make([]int32, n)
	if n == 0 {
		return lcp
	}
	rank := make([]int32, n)
	for i, s := range sa {
		rank[s] = int32(i)
	}
	h := int32(0)
	for i := 0; i < n; i++ {
		r := rank[i]
		if r > 0 {
			j := int(sa[r-1])
			for int(i)+int(h) < n && j+int(h) < n && t[int(i)+int(h)] == t[j+int(h)] {
				h++
			}
			lcp[r] = h
			if h > 0 {
				h--
			}
		} else {
			h = 0
		}
	}
	lcp[0] = 0
	return lcp
}

// ClampLCP subtracts past-end crossings from the raw LCP array so no
// entry reports a match spanning a sentinel: entry i can never exceed
// either endpoint suffix's own remaining length within its sequence,
// `end[sid]-pos` (excluding the sentinel position itself, no +1).
func ClampLCP(raw []int32, sa []int32, sid []int32, end []int32) []int32 {
	n := len(raw)
	clamped := make([]int32, n)
	for i := 0; i < n; i++ {
		v := raw[i]
		if i == 0 {
			clamped[i] = 0
			continue
		}
		a, b := sa[i-1], sa[i]
		remA := end[sid[a]] - a
		remB := end[sid[b]] - b
		if v > remA {
			v = remA
		}
		if v > remB {
			v = remB
		}
		if v < 0 {
			v = 0
		}
		clamped[i] = v
	}
	return clamped
}
