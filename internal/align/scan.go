package align

import "github.com/Yatin-Singla/pgraph-tascel/internal/simdlane"

// scanLayout is the two-phase "scan" layout: phase one computes H
// ignoring the F (gap-in-reference) term entirely; phase two corrects
// it with a parallel-prefix max over the column, since F[i,j] can in
// principle be seeded by any earlier row i'<i in the same column, not
// just i-1.
//
// The prefix max is carried out as a Hillis-Steele doubling scan,
// O(log m) rounds over the column, rather than a sequential running
// max.
type scanLayout struct{}

// Scan is the two-phase vector Layout.
var Scan Layout = scanLayout{}

func (scanLayout) Name() string { return "scan" }

// prefixElem is one entry of the max-plus prefix scan: v is the
// transformed score H'[i]+gap*i used so the scan only ever needs a
// plain numeric max, h/idx is the original cell and row the winning v
// came from, needed to reconstruct F's score and (matches, length).
type prefixElem struct {
	v   int64
	h   statCell
	idx int
}

func (scanLayout) Align(q, r []byte, score ScoreFunc, open, gap int, mode Mode, width Width) (Cell, error) {
	if err := validate(q, r, open, gap); err != nil {
		return Cell{}, err
	}
	m, n := len(q), len(r)
	openP, gapP := int64(open), int64(gap)
	local := mode == Local
	freeEndGaps := mode == SemiGlobal
	saturated := false
	laneWidth := int(simdlane.LaneWidth16)
	if width == Width8 {
		laneWidth = int(simdlane.LaneWidth8)
	}

	Hprev := make([]statCell, m+1)
	Hcur := make([]statCell, m+1)
	Eprev := make([]statCell, m+1)
	Ecur := make([]statCell, m+1)

	// Column 0 / row 0 boundary: identical reasoning to scalar.go, run
	// the E/F recurrence along the edge instead of a closed-form cost.
	fBound := negInf
	for i := 1; i <= m; i++ {
		if freeEndGaps || local {
			Hprev[i] = statCell{}
			continue
		}
		extendCand := statCell{score: fBound.score - gapP, matches: fBound.matches, length: fBound.length + 1}
		openCand := statCell{score: Hprev[i-1].score - openP, matches: Hprev[i-1].matches, length: Hprev[i-1].length + 1}
		f := openCand
		if extendCand.score >= openCand.score {
			f = extendCand
		}
		fBound = f
		Hprev[i] = f
	}
	for i := range Eprev {
		Eprev[i] = negInf
	}

	best := Hprev[0]
	rowMax := negInf
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
			row0E, row0 = e, e
			Hcur[0] = e
		}
		Ecur[0] = negInf

		// Phase 1: H' ignoring F, i.e. H'[i] = max(diag, E[i,j]). diag
		// and e are kept alongside hPrime so the final combine in
		// phase 2 can apply the same diag>del>ins tie-break scalar.go
		// uses, instead of the two-way collapse done here.
		hPrime := make([]statCell, m+1)
		diagCell := make([]statCell, m+1)
		eCell := make([]statCell, m+1)
		hPrime[0] = Hcur[0]
		for i := 1; i <= m; i++ {
			extendE := statCell{score: Eprev[i].score - gapP, matches: Eprev[i].matches, length: Eprev[i].length + 1}
			openE := statCell{score: Hprev[i].score - openP, matches: Hprev[i].matches, length: Hprev[i].length + 1}
			e := openE
			if extendE.score >= openE.score {
				e = extendE
			}
			Ecur[i] = e
			eCell[i] = e

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
			diagCell[i] = diag
			h := diag
			if e.score > h.score {
				h = e
			}
			hPrime[i] = h
		}

		// Phase 2: parallel-prefix max over v[i]=H'[i]+gap*i, giving
		// the best F seed for every row in one pass.
		prefix := make([]prefixElem, m+1)
		for i := 0; i <= m; i++ {
			prefix[i] = prefixElem{v: hPrime[i].score + gapP*int64(i), h: hPrime[i], idx: i}
		}
		// Ties prefer the earlier (smaller-idx) source: the reference
		// recurrence resolves F's extend-vs-open tie in favor of
		// extending, which traces the gap back to its earliest opening
		// row, so equal-v sources must resolve the same way here or the
		// (matches, length) stats diverge from the scalar kernel.
		for stride := 1; stride <= m; stride *= 2 {
			next := make([]prefixElem, m+1)
			copy(next, prefix)
			for i := stride; i <= m; i++ {
				if prefix[i-stride].v >= next[i].v {
					next[i] = prefix[i-stride]
				}
			}
			prefix = next
		}

		diagScores := make([]int64, m)
		fScores := make([]int64, m)
		eScores := make([]int64, m)
		for i := 1; i <= m; i++ {
			src := prefix[i-1]
			f := statCell{
				score:   src.v - openP - gapP*int64(i-1),
				matches: src.h.matches,
				length:  src.h.length + int32(i-src.idx),
			}
			// Same diag>del(F)>ins(E) tie-break as scalar.go.
			h := diagCell[i]
			if f.score > h.score {
				h = f
			}
			if eCell[i].score > h.score {
				h = eCell[i]
			}
			if local && h.score < 0 {
				h = statCell{}
			}
			Hcur[i] = h
			diagScores[i-1] = diagCell[i].score
			fScores[i-1] = f.score
			eScores[i-1] = eCell[i].score
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
