package driver

import (
	"regexp"
	"strings"
	"testing"

	"github.com/Yatin-Singla/pgraph-tascel/internal/align"
	"github.com/Yatin-Singla/pgraph-tascel/internal/params"
	"github.com/Yatin-Singla/pgraph-tascel/internal/scorer"
	"github.com/Yatin-Singla/pgraph-tascel/internal/seqstore"
)

// dnaLikeMatrix builds a scorer.Matrix scoring match=+4, mismatch=-1
// over A/C/G/T.
func dnaLikeMatrix() *scorer.Matrix {
	var table [scorer.SigmaSize][scorer.SigmaSize]int8
	for i := range table {
		for j := range table[i] {
			table[i][j] = -1
		}
	}
	for _, b := range []byte("ACGT") {
		idx := strings.IndexByte(scorer.Alphabet, b)
		table[idx][idx] = 4
	}
	return scorer.NewMatrix(table)
}

// TestIdenticalSequencesProduceSingleEdge checks that two identical
// short sequences classify as a single edge end to end through Run.
func TestIdenticalSequencesProduceSingleEdge(t *testing.T) {
	records := []seqstore.Record{
		{Name: "a", Residues: []byte("ACGT")},
		{Name: "b", Residues: []byte("ACGT")},
	}
	p := params.Default()
	p.AOL, p.SIM, p.OS = 100, 100, 90
	p.Open, p.Gap = 10, 1

	res, err := Run(Config{
		Params:  p,
		Scorer:  dnaLikeMatrix(),
		Mode:    align.Global,
		Workers: 2,
	}, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Edges) != 1 {
		t.Fatalf("expected exactly 1 edge, got %d: %+v", len(res.Edges), res.Edges)
	}
	e := res.Edges[0]
	if e.A != 0 || e.B != 1 {
		t.Fatalf("expected edge (0,1), got (%d,%d)", e.A, e.B)
	}
	if e.Cell.Matches != 4 || e.Cell.Length != 4 || e.Cell.Score != 16 {
		t.Fatalf("cell = %+v, want matches=4 length=4 score=16", e.Cell)
	}
}

// TestExactMatchCutoffExcludesShortSequence runs the
// exact-match-length cutoff through the full driver
// (pack+index+enumerate) instead of directly against internal/suffix.
func TestExactMatchCutoffExcludesShortSequence(t *testing.T) {
	records := []seqstore.Record{
		{Name: "x", Residues: []byte("AAAAAAAA")},
		{Name: "y", Residues: []byte("AAAAAAAA")},
		{Name: "z", Residues: []byte("CCCC")},
	}
	p := params.Default()
	p.WindowSize = 3
	p.ExactMatchLen = 4
	p.AOL, p.SIM, p.OS = 1, 1, 1 // every candidate pair should classify as an edge

	res, err := Run(Config{
		Params:  p,
		Scorer:  dnaLikeMatrix(),
		Mode:    align.Global,
		Workers: 2,
	}, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PairsExamined != 1 {
		t.Fatalf("expected exactly 1 candidate pair, got %d", res.PairsExamined)
	}
	if len(res.Edges) != 1 || res.Edges[0].A != 0 || res.Edges[0].B != 1 {
		t.Fatalf("expected edge (x,y) = (0,1), got %+v", res.Edges)
	}
}

// TestSaturationEscalationReturnsExactScore checks that an 8-bit
// aligner given an input yielding score > 120 saturates, and the
// 16-bit rerun returns the exact score.
func TestSaturationEscalationReturnsExactScore(t *testing.T) {
	long := strings.Repeat("A", 40) // 40 matches * score 4 = 160 > int8 range
	records := []seqstore.Record{
		{Name: "a", Residues: []byte(long)},
		{Name: "b", Residues: []byte(long)},
	}
	p := params.Default()
	p.AOL, p.SIM, p.OS = 1, 1, 1
	p.Open, p.Gap = 10, 1

	res, err := Run(Config{
		Params:  p,
		Scorer:  dnaLikeMatrix(),
		Mode:    align.Global,
		Width:   align.Width8,
		Workers: 1,
	}, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(res.Edges))
	}
	if res.Edges[0].Cell.Saturated {
		t.Fatal("escalated result must not report saturated")
	}
	if res.Edges[0].Cell.Score != 160 {
		t.Fatalf("Cell.Score = %d, want 160", res.Edges[0].Cell.Score)
	}
}

// TestSaturatedPairsAreReportedNotClassified pins the aligner to a
// non-escalating 8-bit layout so saturation survives to the driver,
// which must report the pair flagged rather than classify it.
func TestSaturatedPairsAreReportedNotClassified(t *testing.T) {
	long := strings.Repeat("A", 40)
	records := []seqstore.Record{
		{Name: "a", Residues: []byte(long)},
		{Name: "b", Residues: []byte(long)},
	}
	p := params.Default()
	p.AOL, p.SIM, p.OS = 1, 1, 1

	res, err := Run(Config{
		Params:  p,
		Scorer:  dnaLikeMatrix(),
		Mode:    align.Global,
		Layout:  align.Scan,
		Width:   align.Width8,
		Workers: 1,
	}, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Edges) != 0 {
		t.Fatalf("saturated pair must not classify as an edge, got %+v", res.Edges)
	}
	if len(res.SaturatedPairs) != 1 || !res.SaturatedPairs[0].Cell.Saturated {
		t.Fatalf("expected one flagged saturated pair, got %+v", res.SaturatedPairs)
	}
}

// TestCounterModeSelectivity checks that counter mode's selectivity
// fraction picks the expected number of tasks.
func TestCounterModeSelectivity(t *testing.T) {
	records := make([]seqstore.Record, 5)
	for i := range records {
		records[i] = seqstore.Record{Name: string(rune('a' + i)), Residues: []byte("ACGT")}
	}
	p := params.Default()
	p.Open, p.Gap = 10, 1

	res, err := Run(Config{
		Params:      p,
		Scorer:      dnaLikeMatrix(),
		Mode:        align.Global,
		Workers:     2,
		CounterMode: true,
		Selectivity: 0.5,
	}, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PairsExamined != 5 {
		t.Fatalf("PairsExamined = %d, want round(0.5*10) = 5", res.PairsExamined)
	}
}

// TestTreeModeHonorsSkipPrefixes runs the bucketed tree enumerator
// through Run and checks that a SkipPrefixes pattern suppresses the
// bucket that would otherwise produce the only candidate pair.
func TestTreeModeHonorsSkipPrefixes(t *testing.T) {
	records := []seqstore.Record{
		{Name: "x", Residues: []byte("AAAAAAAA")},
		{Name: "y", Residues: []byte("AAAAAAAA")},
	}
	p := params.Default()
	p.WindowSize = 3
	p.ExactMatchLen = 4
	p.AOL, p.SIM, p.OS = 1, 1, 1

	cfg := Config{
		Params:  p,
		Scorer:  dnaLikeMatrix(),
		Mode:    align.Global,
		Workers: 2,
		UseTree: true,
	}
	res, err := Run(cfg, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PairsExamined != 1 {
		t.Fatalf("tree mode without skips: PairsExamined = %d, want 1", res.PairsExamined)
	}

	cfg.Params.SkipPrefixes = []*regexp.Regexp{regexp.MustCompile("^AAA")}
	res, err = Run(cfg, records)
	if err != nil {
		t.Fatalf("Run with skips: %v", err)
	}
	if res.PairsExamined != 0 {
		t.Fatalf("tree mode with ^AAA skipped: PairsExamined = %d, want 0", res.PairsExamined)
	}
}

// TestCutoffOverrideTakesPrecedenceOverParams exercises the
// supplemented -c flag path.
func TestCutoffOverrideTakesPrecedenceOverParams(t *testing.T) {
	c := Config{Params: params.Parameters{ExactMatchLen: 4}}
	if got := c.cutoff(); got != 4 {
		t.Fatalf("cutoff() = %d, want 4", got)
	}
	override := 8
	c.CutoffOverride = &override
	if got := c.cutoff(); got != 8 {
		t.Fatalf("cutoff() with override = %d, want 8", got)
	}
}
