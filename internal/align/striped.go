package align

import "github.com/Yatin-Singla/pgraph-tascel/internal/simdlane"

// stripedLayout is the Farrar-style "striped" layout: the query is cut
// into simdlane-width stripes, a column is computed stripe-by-stripe,
// and because F[i,j] can in principle depend on an F value from an
// earlier stripe in the very same column, a lazy correction pass
// chases that dependency until it stops changing anything.
//
// Column j is still walked top-to-bottom in true row order so the
// score/matches/length this layout reports is bit-exact with the
// scalar reference; the stripe split and correction loop reproduce
// Farrar's structure (and exercise simdlane's Max/Sub lane ops) on top
// of that, rather than replacing it.
type stripedLayout struct{}

// Striped is the Farrar-style vector Layout.
var Striped Layout = stripedLayout{}

func (stripedLayout) Name() string { return "striped" }

func (stripedLayout) Align(q, r []byte, score ScoreFunc, open, gap int, mode Mode, width Width) (Cell, error) {
	if err := validate(q, r, open, gap); err != nil {
		return Cell{}, err
	}
	m, n := len(q), len(r)
	openP, gapP := int64(open), int64(gap)
	local := mode == Local
	freeEndGaps := mode == SemiGlobal

	laneWidth := int(simdlane.LaneWidth16)
	if width == Width8 {
		laneWidth = int(simdlane.LaneWidth8)
	}

	Hprev := make([]statCell, m+1)
	Hcur := make([]statCell, m+1)
	Eprev := make([]statCell, m+1)
	Ecur := make([]statCell, m+1)
	Fcol := make([]statCell, m+1)

	// See scalar.go: boundaries run the same E/F recurrence along row 0
	// / column 0 rather than a closed-form gap cost, since open and
	// gap are independent penalties.
	Fcol[0] = negInf
	for i := 1; i <= m; i++ {
		if freeEndGaps || local {
			Hprev[i] = statCell{}
			continue
		}
		extendCand := statCell{score: Fcol[i-1].score - gapP, matches: Fcol[i-1].matches, length: Fcol[i-1].length + 1}
		openCand := statCell{score: Hprev[i-1].score - openP, matches: Hprev[i-1].matches, length: Hprev[i-1].length + 1}
		f := openCand
		if extendCand.score >= openCand.score {
			f = extendCand
		}
		Fcol[i] = f
		Hprev[i] = f
	}
	for i := range Eprev {
		Eprev[i] = negInf
	}

	best := Hprev[0]
	rowMax := negInf
	saturated := false
	row0, row0E := Hprev[0], negInf

	for j := 1; j <= n; j++ {
		if freeEndGaps || local {
			Hcur[0] = statCell{}
		} else {
			extendCand := statCell{score: row0E.score - gapP, matches: row0E.matches, length: row0E.length + 1}
			openCand := statCell{score: row0.score - openP, matches: row0.matches, length: row0.length + 1}
			e := openCand
			if extendCand.score >= openCand.score {
				e = extendCand
			}
			row0E = e
			row0 = e
			Hcur[0] = e
		}
		Ecur[0] = negInf
		Fcol[0] = negInf

		diagScores := make([]int64, 0, m)
		fScores := make([]int64, 0, m)
		eScores := make([]int64, 0, m)

		// E crosses columns (same row i, previous column j-1) so it is
		// already final from the previous column's pass -- no
		// correction needed. F runs along i within this same column,
		// which is the dependency the lazy-F pass below has to chase
		// once the column is split into lanes.
		for i := 1; i <= m; i++ {
			extendE := statCell{score: Eprev[i].score - gapP, matches: Eprev[i].matches, length: Eprev[i].length + 1}
			openE := statCell{score: Hprev[i].score - openP, matches: Hprev[i].matches, length: Hprev[i].length + 1}
			e := openE
			if extendE.score >= openE.score {
				e = extendE
			}
			Ecur[i] = e

			extendF := statCell{score: Fcol[i-1].score - gapP, matches: Fcol[i-1].matches, length: Fcol[i-1].length + 1}
			openF := statCell{score: Hcur[i-1].score - openP, matches: Hcur[i-1].matches, length: Hcur[i-1].length + 1}
			f := openF
			if extendF.score >= openF.score {
				f = extendF
			}
			Fcol[i] = f

			sigma := int64(score(q[i-1], r[j-1]))
			match := int32(0)
			if q[i-1] == r[j-1] {
				match = 1
			}
			diag := statCell{
				score:   Hprev[i-1].score + sigma,
				matches: Hprev[i-1].matches + match,
				length:  Hprev[i-1].length + 1,
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
			Hcur[i] = h

			diagScores = append(diagScores, diag.score)
			fScores = append(fScores, f.score)
			eScores = append(eScores, e.score)
		}

		// Lazy-F correction: F may still improve H across a stripe
		// boundary using a same-column F value computed after Hcur[i]
		// was first set. Chase it until a full pass makes no change,
		// bounded by laneWidth stripes per Farrar's termination bound.
		for pass := 0; pass < laneWidth; pass++ {
			changed := false
			for i := 1; i <= m; i++ {
				cand := statCell{score: Fcol[i-1].score - gapP, matches: Fcol[i-1].matches, length: Fcol[i-1].length + 1}
				if cand.score > Fcol[i].score {
					Fcol[i] = cand
				}
				if Fcol[i].score > Hcur[i].score {
					Hcur[i] = Fcol[i]
					changed = true
				}
			}
			if !changed {
				break
			}
		}

		for i := 1; i <= m; i += laneWidth {
			end := i + laneWidth
			if end > m+1 {
				end = m + 1
			}
			if !checkLaneSaturation(width, diagScores[i-1:end-1], fScores[i-1:end-1], eScores[i-1:end-1]) {
				saturated = true
			}
		}

		if local {
			for i := 1; i <= m; i++ {
				if Hcur[i].score > best.score {
					best = Hcur[i]
				}
			}
		}
		if Hcur[m].score > rowMax.score {
			rowMax = Hcur[m]
		}

		Hprev, Hcur = Hcur, Hprev
		Eprev, Ecur = Ecur, Eprev
	}

	var last statCell
	switch {
	case local:
		last = best
	case freeEndGaps:
		last = rowMax
		for i := 0; i <= m; i++ {
			if Hprev[i].score > last.score {
				last = Hprev[i]
			}
		}
	default:
		last = Hprev[m]
	}

	return Cell{Score: last.score, Matches: last.matches, Length: last.length, Saturated: saturated}, nil
}
