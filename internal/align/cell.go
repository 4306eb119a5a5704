// Package align implements the vectorized pairwise aligner kernels:
// semi-global, global, and local affine-gap dynamic programming, each
// available in three SIMD-style layouts (anti-diagonal/"wozniak",
// striped/"Farrar", and "scan") at 8- and 16-bit lane precision, plus
// the scalar reference kernel every layout is checked against.
//
// The three layouts are distinct algorithms kept as sibling
// implementations behind the Layout interface rather than unified into
// one generic function, so they can be benchmarked and their traversal
// orders compared directly.
package align

import "github.com/pkg/errors"

// Mode selects the alignment boundary condition.
type Mode int

const (
	// Global ("nw"): row 0 / col 0 initialized to -open-gap*k, report
	// H[m,n].
	Global Mode = iota
	// SemiGlobal ("sg"): end-gaps are free on both sequences; report
	// the max over the last row and last column.
	SemiGlobal
	// Local ("sw"): floor at 0, report the global max reached.
	Local
)

func (m Mode) String() string {
	switch m {
	case Global:
		return "nw"
	case SemiGlobal:
		return "sg"
	case Local:
		return "sw"
	default:
		return "unknown"
	}
}

// Width selects the SIMD lane precision.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
)

// Cell is the affine DP result: a score plus the matches/length
// statistics tracked in parallel under the diag>del>ins tie-break rule.
type Cell struct {
	Score     int64
	Matches   int32
	Length    int32
	Saturated bool
}

// Layout computes an affine-gap alignment of q against r under the
// given substitution scorer, gap penalties (expressed as non-negative
// internal penalties), boundary Mode, and lane Width.
type Layout interface {
	Name() string
	Align(q, r []byte, scorer ScoreFunc, open, gap int, mode Mode, width Width) (Cell, error)
}

// ScoreFunc is the minimal substitution-scorer surface the aligners
// need, satisfied by (*scorer.Matrix).Score.
type ScoreFunc func(a, b byte) int

// validate checks the aligner pre-conditions common to every layout.
func validate(q, r []byte, open, gap int) error {
	if len(q) == 0 || len(r) == 0 {
		return errors.New("align: both sequence lengths must be > 0")
	}
	if open < 0 || gap < 0 {
		return errors.New("align: open and gap penalties must be expressed as non-negative internal values")
	}
	return nil
}

var errUnknownMode = errors.New("align: unknown mode")
