package align

// statCell carries a DP value alongside the (matches, length) pair
// accumulated along whichever path produced it.
type statCell struct {
	score   int64
	matches int32
	length  int32
}

var negInf = statCell{score: -(1 << 40)}

// Scalar is the reference kernel: a plain, full-matrix, arbitrary-
// precision double loop implementing the affine-gap recurrence directly,
// with no lane width at all. Every other layout is checked against it
// for exact score/statistics parity.
type scalarLayout struct{}

// ScalarRef is the reference Layout implementation.
var ScalarRef Layout = scalarLayout{}

func (scalarLayout) Name() string { return "scalar" }

func (scalarLayout) Align(q, r []byte, score ScoreFunc, open, gap int, mode Mode, _ Width) (Cell, error) {
	if err := validate(q, r, open, gap); err != nil {
		return Cell{}, err
	}
	m, n := len(q), len(r)
	openP, gapP := int64(open), int64(gap)

	// H, E, F as (m+1) x (n+1) matrices of statCell. For realistic
	// input sizes in this codebase (post-filtering candidate pairs)
	// this is not the memory-critical path; the lane-based layouts
	// use rolling single-row buffers instead.
	H := make([][]statCell, m+1)
	E := make([][]statCell, m+1)
	F := make([][]statCell, m+1)
	for i := range H {
		H[i] = make([]statCell, n+1)
		E[i] = make([]statCell, n+1)
		F[i] = make([]statCell, n+1)
	}

	local := mode == Local
	freeEndGaps := mode == SemiGlobal

	// F has no row above row 0, and E has no column to the left of
	// column 0: both boundaries must read as -infinity, or an
	// uninitialized (zero-valued) entry could be mistaken for a free
	// gap extension at the matrix edge.
	for j := 0; j <= n; j++ {
		F[0][j] = negInf
	}
	for i := 0; i <= m; i++ {
		E[i][0] = negInf
	}

	// Row 0 / column 0 are filled by running the same E/F recurrence
	// along the boundary rather than a closed-form gap cost: open and
	// gap are independent non-negative penalties, so a hand-derived
	// formula for "a leading gap of length k" would silently assume
	// gap<=open. Global mode pays to open+extend a boundary gap;
	// semi-global/local leave the boundary free.
	for j := 1; j <= n; j++ {
		if freeEndGaps || local {
			H[0][j] = statCell{}
			continue
		}
		extendCand := statCell{score: E[0][j-1].score - gapP, matches: E[0][j-1].matches, length: E[0][j-1].length + 1}
		openCand := statCell{score: H[0][j-1].score - openP, matches: H[0][j-1].matches, length: H[0][j-1].length + 1}
		e := openCand
		if extendCand.score >= openCand.score {
			e = extendCand
		}
		E[0][j] = e
		H[0][j] = e
	}
	for i := 1; i <= m; i++ {
		if freeEndGaps || local {
			H[i][0] = statCell{}
			continue
		}
		extendCand := statCell{score: F[i-1][0].score - gapP, matches: F[i-1][0].matches, length: F[i-1][0].length + 1}
		openCand := statCell{score: H[i-1][0].score - openP, matches: H[i-1][0].matches, length: H[i-1][0].length + 1}
		f := openCand
		if extendCand.score >= openCand.score {
			f = extendCand
		}
		F[i][0] = f
		H[i][0] = f
	}

	best := H[0][0]
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			// F[i][j]: gap in reference ("deletion"), moves along i.
			extendF := statCell{score: F[i-1][j].score - gapP, matches: F[i-1][j].matches, length: F[i-1][j].length + 1}
			openF := statCell{score: H[i-1][j].score - openP, matches: H[i-1][j].matches, length: H[i-1][j].length + 1}
			var f statCell
			if extendF.score >= openF.score {
				f = extendF
			} else {
				f = openF
			}
			F[i][j] = f

			// E[i][j]: gap in query ("insertion"), moves along j.
			extendE := statCell{score: E[i][j-1].score - gapP, matches: E[i][j-1].matches, length: E[i][j-1].length + 1}
			openE := statCell{score: H[i][j-1].score - openP, matches: H[i][j-1].matches, length: H[i][j-1].length + 1}
			var e statCell
			if extendE.score >= openE.score {
				e = extendE
			} else {
				e = openE
			}
			E[i][j] = e

			sigma := int64(score(q[i-1], r[j-1]))
			match := int32(0)
			if q[i-1] == r[j-1] {
				match = 1
			}
			diag := statCell{
				score:   H[i-1][j-1].score + sigma,
				matches: H[i-1][j-1].matches + match,
				length:  H[i-1][j-1].length + 1,
			}

			// Tie-break rule: diag > del(F) > ins(E).
			h := diag
			if f.score > h.score {
				h = f
			}
			if e.score > h.score {
				h = e
			}
			if local && h.score < 0 {
				h = statCell{}
			}
			H[i][j] = h

			if local && h.score > best.score {
				best = h
			}
		}
	}

	return finalize(mode, H, m, n, best)
}
