package align

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Yatin-Singla/pgraph-tascel/internal/scorer"
)

// dnaLike is a standard DNA-like matrix: match=+4 mismatch=-1.
func dnaLike(a, b byte) int {
	if a == b {
		return 4
	}
	return -1
}

var layouts = []Layout{ScalarRef, Wozniak, Striped, Scan}

func TestAlignerParityAllLayoutsAllModes(t *testing.T) {
	pairs := [][2]string{
		{"ACGT", "ACGT"},
		{"ACGTACGT", "ACGTTTGT"},
		{"AAAA", "AAAAAAAA"},
		{"MEFYDVAVTV", "AALGVAARAG"},
		{"A", "AAAAA"},
		{"GATTACA", "GATACA"},
	}
	modes := []Mode{Global, SemiGlobal, Local}
	widths := []Width{Width8, Width16}

	for _, p := range pairs {
		for _, mode := range modes {
			for _, width := range widths {
				ref, err := ScalarRef.Align([]byte(p[0]), []byte(p[1]), dnaLike, 10, 1, mode, width)
				if err != nil {
					t.Fatalf("scalar reference error on %v/%v: %v", p, mode, err)
				}
				for _, l := range layouts {
					if l.Name() == "scalar" {
						continue
					}
					got, err := l.Align([]byte(p[0]), []byte(p[1]), dnaLike, 10, 1, mode, width)
					if err != nil {
						t.Fatalf("%s error on %v/%s/w%d: %v", l.Name(), p, mode, width, err)
					}
					if got.Score != ref.Score {
						t.Fatalf("%s score mismatch on %v/%s/w%d: got %d want %d", l.Name(), p, mode, width, got.Score, ref.Score)
					}
					if got.Matches != ref.Matches || got.Length != ref.Length {
						t.Fatalf("%s stats mismatch on %v/%s/w%d: got (%d,%d) want (%d,%d)",
							l.Name(), p, mode, width, got.Matches, got.Length, ref.Matches, ref.Length)
					}
				}
			}
		}
	}
}

// TestAlignerParityRandomized is the property-style companion to the
// fixed-pair table above: random protein pairs, every layout must
// agree with the scalar reference on score, matches, and length under
// the diag>del>ins tie-break, in every mode, within the 16-bit range.
func TestAlignerParityRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	residues := []byte("ARNDCQEGHILKMFPSTWYV")
	randSeq := func(n int) []byte {
		s := make([]byte, n)
		for i := range s {
			s[i] = residues[rng.Intn(len(residues))]
		}
		return s
	}

	for trial := 0; trial < 25; trial++ {
		q := randSeq(1 + rng.Intn(30))
		r := randSeq(1 + rng.Intn(30))
		for _, mode := range []Mode{Global, SemiGlobal, Local} {
			ref, err := ScalarRef.Align(q, r, scorer.BLOSUM62.Score, 10, 1, mode, Width16)
			require.NoError(t, err)
			for _, l := range []Layout{Wozniak, Striped, Scan} {
				got, err := l.Align(q, r, scorer.BLOSUM62.Score, 10, 1, mode, Width16)
				require.NoError(t, err, "%s/%s on %q/%q", l.Name(), mode, q, r)
				require.Equal(t, ref.Score, got.Score,
					"%s/%s score on %q/%q", l.Name(), mode, q, r)
				require.Equal(t, ref.Matches, got.Matches,
					"%s/%s matches on %q/%q", l.Name(), mode, q, r)
				require.Equal(t, ref.Length, got.Length,
					"%s/%s length on %q/%q", l.Name(), mode, q, r)
			}
		}
	}
}

// TestGlobalIdenticalShortSequences checks that two identical 4-base
// sequences under a DNA-like matrix and open=10, gap=1 score exactly
// 16 with matches=length=4.
func TestGlobalIdenticalShortSequences(t *testing.T) {
	c, err := ScalarRef.Align([]byte("ACGT"), []byte("ACGT"), dnaLike, 10, 1, Global, Width16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Score != 16 || c.Matches != 4 || c.Length != 4 {
		t.Fatalf("got %+v, want score=16 matches=4 length=4", c)
	}
}

// TestBlosum62ParityAcrossLayouts checks that a global BLOSUM62
// alignment of MEFYDVAVTV against AALGVAARAG, open=10 gap=1, agrees
// across every vector layout and width.
func TestBlosum62ParityAcrossLayouts(t *testing.T) {
	q, r := []byte("MEFYDVAVTV"), []byte("AALGVAARAG")
	ref, err := ScalarRef.Align(q, r, scorer.BLOSUM62.Score, 10, 1, Global, Width16)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []Layout{Wozniak, Striped, Scan} {
		for _, w := range []Width{Width8, Width16} {
			got, err := l.Align(q, r, scorer.BLOSUM62.Score, 10, 1, Global, w)
			if err != nil {
				t.Fatalf("%s/w%d error: %v", l.Name(), w, err)
			}
			if got.Score != ref.Score {
				t.Fatalf("%s/w%d score = %d, want %d", l.Name(), w, got.Score, ref.Score)
			}
		}
	}
}

func TestSelfScoreSymmetry(t *testing.T) {
	s := []byte("MEFYDVAVTV")
	a, err := ScalarRef.Align(s, s, scorer.BLOSUM62.Score, 10, 1, Global, Width16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ScalarRef.Align(s, s, scorer.BLOSUM62.Score, 10, 1, Global, Width16)
	if err != nil {
		t.Fatal(err)
	}
	if a.Score != b.Score {
		t.Fatalf("self-score not deterministic: %d vs %d", a.Score, b.Score)
	}
	var want int64
	for _, c := range s {
		want += int64(scorer.BLOSUM62.Score(c, c))
	}
	if a.Score != want {
		t.Fatalf("self-score = %d, want sum of diagonal = %d", a.Score, want)
	}
}

func TestSemiGlobalFreeEndGaps(t *testing.T) {
	// A short query fully contained in a long reference should align
	// with no penalty for the reference's overhanging ends.
	q, r := []byte("ACGT"), []byte("TTTTACGTTTTT")
	c, err := ScalarRef.Align(q, r, dnaLike, 10, 1, SemiGlobal, Width16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Score != 16 || c.Matches != 4 || c.Length != 4 {
		t.Fatalf("got %+v, want score=16 matches=4 length=4", c)
	}
}

func TestLocalFloorsAtZero(t *testing.T) {
	q, r := []byte("CCCCACGTCCCC"), []byte("GGGGACGTGGGG")
	c, err := ScalarRef.Align(q, r, dnaLike, 10, 1, Local, Width16)
	if err != nil {
		t.Fatal(err)
	}
	if c.Score != 16 || c.Matches != 4 || c.Length != 4 {
		t.Fatalf("got %+v, want the ACGT core only: score=16 matches=4 length=4", c)
	}
}

func TestValidateRejectsEmptySequence(t *testing.T) {
	if _, err := ScalarRef.Align(nil, []byte("A"), dnaLike, 10, 1, Global, Width16); err == nil {
		t.Fatal("expected error on empty query")
	}
	if _, err := ScalarRef.Align([]byte("A"), nil, dnaLike, 10, 1, Global, Width16); err == nil {
		t.Fatal("expected error on empty reference")
	}
}

func TestValidateRejectsNegativePenalties(t *testing.T) {
	if _, err := ScalarRef.Align([]byte("A"), []byte("A"), dnaLike, -1, 1, Global, Width16); err == nil {
		t.Fatal("expected error on negative open")
	}
	if _, err := ScalarRef.Align([]byte("A"), []byte("A"), dnaLike, 1, -1, Global, Width16); err == nil {
		t.Fatal("expected error on negative gap")
	}
}

// TestEscalateRetriesOnSaturation exercises the precision-escalation
// path: a pair whose 8-bit magnitude is forced past int8 range by
// checkLaneSaturation must come back with the exact 16-bit score.
func TestEscalateRetriesOnSaturation(t *testing.T) {
	bigMatch := func(a, b byte) int {
		if a == b {
			return 100
		}
		return -100
	}
	q := []byte("ACGTACGTACGTACGT")
	r := q

	direct8, err := Wozniak.Align(q, r, bigMatch, 10, 1, Global, Width8)
	if err != nil {
		t.Fatal(err)
	}
	if !direct8.Saturated {
		t.Fatalf("expected 8-bit alignment to report saturation, got %+v", direct8)
	}

	escalated, err := Escalate(Wozniak).Align(q, r, bigMatch, 10, 1, Global, Width8)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := ScalarRef.Align(q, r, bigMatch, 10, 1, Global, Width16)
	if err != nil {
		t.Fatal(err)
	}
	if escalated.Score != ref.Score {
		t.Fatalf("escalated score = %d, want %d", escalated.Score, ref.Score)
	}
	if escalated.Saturated {
		t.Fatalf("escalated result should not itself report saturation at width16: %+v", escalated)
	}
}

func TestModeStringAndWidthConstants(t *testing.T) {
	if Global.String() != "nw" || SemiGlobal.String() != "sg" || Local.String() != "sw" {
		t.Fatalf("unexpected Mode.String() outputs")
	}
	if Width8 != 8 || Width16 != 16 {
		t.Fatalf("unexpected Width constants")
	}
}
