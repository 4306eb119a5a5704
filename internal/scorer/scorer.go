// Package scorer implements the substitution scorer: a closed
// enumeration mapping a residue byte to a row index in a 24x24
// substitution matrix, and a read-only score(a,b) lookup.
package scorer

import "github.com/pkg/errors"

// Alphabet is the fixed 24-letter row/column ordering every
// Matrix uses, scanned once at package init to build its lookup.
const Alphabet = "ARNDCQEGHILKMFPSTWYVBZX*"

// SigmaSize is |Sigma|, the width of a substitution matrix row.
const SigmaSize = len(Alphabet)

// Matrix is a 24x24 signed substitution table plus the byte->index map
// used to look up a residue's row.
//
// Matrix is safe for concurrent read-only use by any number of workers:
// it is built once at startup and never mutated afterward.
type Matrix struct {
	table [SigmaSize][SigmaSize]int8
	index [256]int8
}

// NewMatrix builds a Matrix from a 24x24 table given in Alphabet order.
// The byte->row map is a closed enumeration over Alphabet; bytes not in
// Alphabet map to -1 and Score panics if asked to score one, since an
// invalid residue reaching this layer is a logic error upstream, not
// something recoverable here.
func NewMatrix(table [SigmaSize][SigmaSize]int8) *Matrix {
	m := &Matrix{table: table}
	for i := range m.index {
		m.index[i] = -1
	}
	for i := 0; i < SigmaSize; i++ {
		m.index[Alphabet[i]] = int8(i)
	}
	return m
}

// RowOf returns the row/column index for residue byte b, or an error if
// b is not in Alphabet.
func (m *Matrix) RowOf(b byte) (int8, error) {
	idx := m.index[b]
	if idx < 0 {
		return 0, errors.Errorf("scorer: residue %q not in alphabet %q", b, Alphabet)
	}
	return idx, nil
}

// Score returns the substitution score for aligning residue a against
// residue b. It panics on an out-of-alphabet residue: by the time
// alignment runs, every sequence byte has already passed through the
// store's packing validation, so an invalid residue here is a logic
// error, not a recoverable one.
func (m *Matrix) Score(a, b byte) int {
	ia, ib := m.index[a], m.index[b]
	if ia < 0 || ib < 0 {
		panic(errors.Errorf("scorer: residue out of alphabet: %q/%q", a, b))
	}
	return int(m.table[ia][ib])
}

// ScoreRow returns the full row of scores for residue a against every
// column, used by the striped/scan aligner layouts to build a query
// profile in one pass instead of calling Score per cell.
func (m *Matrix) ScoreRow(a byte) [SigmaSize]int8 {
	ia := m.index[a]
	if ia < 0 {
		panic(errors.Errorf("scorer: residue out of alphabet: %q", a))
	}
	return m.table[ia]
}
