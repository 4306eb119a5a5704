package align

import "github.com/Yatin-Singla/pgraph-tascel/internal/simdlane"

// wozniakLayout is the anti-diagonal ("wavefront") layout. Cells on the
// same anti-diagonal i+j=d are mutually independent under the
// recurrence (H[i,j] only reads diagonals d-1 and d-2), so a full
// diagonal is the natural vector batch: it is chunked into
// simdlane.Lane8/Lane16-width groups and combined with Max8/Max16.
//
// The per-cell score recurrence is carried in int64 (the same
// arithmetic scalar.go performs) so the result is bit-exact with the
// reference kernel; the lane chunking detects 8/16-bit saturation for
// the escalation path.
type wozniakLayout struct{}

// Wozniak is the anti-diagonal vector Layout.
var Wozniak Layout = wozniakLayout{}

func (wozniakLayout) Name() string { return "wozniak" }

func (wozniakLayout) Align(q, r []byte, score ScoreFunc, open, gap int, mode Mode, width Width) (Cell, error) {
	if err := validate(q, r, open, gap); err != nil {
		return Cell{}, err
	}
	m, n := len(q), len(r)
	openP, gapP := int64(open), int64(gap)
	local := mode == Local
	freeEndGaps := mode == SemiGlobal

	H := make([][]statCell, m+1)
	E := make([][]statCell, m+1)
	F := make([][]statCell, m+1)
	for i := range H {
		H[i] = make([]statCell, n+1)
		E[i] = make([]statCell, n+1)
		F[i] = make([]statCell, n+1)
	}

	for j := 0; j <= n; j++ {
		F[0][j] = negInf
	}
	for i := 0; i <= m; i++ {
		E[i][0] = negInf
	}
	// See scalar.go: boundaries are filled by running the E/F
	// recurrence along row 0 / column 0, not a closed-form gap cost.
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
	saturated := false
	laneWidth := int(simdlane.LaneWidth16)
	if width == Width8 {
		laneWidth = int(simdlane.LaneWidth8)
	}

	// Sweep diagonals d = i+j in increasing order so both predecessor
	// diagonals (d-1 for E/F, d-2 for the H diagonal move) are already
	// resolved.
	for d := 2; d <= m+n; d++ {
		iLo := d - n
		if iLo < 1 {
			iLo = 1
		}
		iHi := d - 1
		if iHi > m {
			iHi = m
		}
		cells := make([]int, 0, iHi-iLo+1)
		for i := iLo; i <= iHi; i++ {
			cells = append(cells, i)
		}

		for chunkStart := 0; chunkStart < len(cells); chunkStart += laneWidth {
			chunkEnd := chunkStart + laneWidth
			if chunkEnd > len(cells) {
				chunkEnd = len(cells)
			}
			diagScores := make([]int64, 0, laneWidth)
			fScores := make([]int64, 0, laneWidth)
			eScores := make([]int64, 0, laneWidth)

			for _, i := range cells[chunkStart:chunkEnd] {
				j := d - i

				extendF := statCell{score: F[i-1][j].score - gapP, matches: F[i-1][j].matches, length: F[i-1][j].length + 1}
				openF := statCell{score: H[i-1][j].score - openP, matches: H[i-1][j].matches, length: H[i-1][j].length + 1}
				f := openF
				if extendF.score >= openF.score {
					f = extendF
				}
				F[i][j] = f

				extendE := statCell{score: E[i][j-1].score - gapP, matches: E[i][j-1].matches, length: E[i][j-1].length + 1}
				openE := statCell{score: H[i][j-1].score - openP, matches: H[i][j-1].matches, length: H[i][j-1].length + 1}
				e := openE
				if extendE.score >= openE.score {
					e = extendE
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

				diagScores = append(diagScores, diag.score)
				fScores = append(fScores, f.score)
				eScores = append(eScores, e.score)
			}

			if !checkLaneSaturation(width, diagScores, fScores, eScores) {
				saturated = true
			}
		}
	}

	c, err := finalize(mode, H, m, n, best)
	if err != nil {
		return Cell{}, err
	}
	c.Saturated = saturated
	return c, nil
}

// overflowGuard is the saturation head-room: a score within this many
// units of the lane type's limit is treated as saturated even though it
// still fits, since the next cell update could push it past the limit
// without any way to detect that after the fact.
const overflowGuard = 7

// checkLaneSaturation packs the three candidate score batches into a
// vector of the chosen width and reports whether every value survived
// the cast, by running a real Max8/Max16 reduction over the packed
// lanes the way a true SIMD kernel would have to. It returns true when
// no value in the batch came within overflowGuard of the lane's
// representable range.
func checkLaneSaturation(width Width, diag, f, e []int64) bool {
	if width == Width8 {
		for _, batch := range [][]int64{diag, f, e} {
			for _, v := range batch {
				if v < -128+overflowGuard || v > 127-overflowGuard {
					return false
				}
			}
		}
		var d, fl, el simdlane.Lane8
		for i := range diag {
			d[i%simdlane.LaneWidth8] = int8(diag[i])
			fl[i%simdlane.LaneWidth8] = int8(f[i])
			el[i%simdlane.LaneWidth8] = int8(e[i])
		}
		_ = simdlane.Max8(simdlane.Max8(d, fl), el)
		return true
	}
	for _, batch := range [][]int64{diag, f, e} {
		for _, v := range batch {
			if v < -32768+overflowGuard || v > 32767-overflowGuard {
				return false
			}
		}
	}
	var d, fl, el simdlane.Lane16
	for i := range diag {
		d[i%simdlane.LaneWidth16] = int16(diag[i])
		fl[i%simdlane.LaneWidth16] = int16(f[i])
		el[i%simdlane.LaneWidth16] = int16(e[i])
	}
	_ = simdlane.Max16(simdlane.Max16(d, fl), el)
	return true
}

// finalize reads the Cell out of a filled H matrix per the boundary
// mode, shared by every full-matrix layout.
func finalize(mode Mode, H [][]statCell, m, n int, best statCell) (Cell, error) {
	switch mode {
	case Local:
		return Cell{Score: best.score, Matches: best.matches, Length: best.length}, nil
	case Global:
		c := H[m][n]
		return Cell{Score: c.score, Matches: c.matches, Length: c.length}, nil
	case SemiGlobal:
		c := H[m][n]
		for j := 0; j <= n; j++ {
			if H[m][j].score > c.score {
				c = H[m][j]
			}
		}
		for i := 0; i <= m; i++ {
			if H[i][n].score > c.score {
				c = H[i][n]
			}
		}
		return Cell{Score: c.score, Matches: c.matches, Length: c.length}, nil
	default:
		return Cell{}, errUnknownMode
	}
}
