package params

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default parameters failed validation: %v", err)
	}
}

func TestLoadParsesRecognizedKeys(t *testing.T) {
	src := strings.NewReader(`
# a comment
SlideWindowSize: 5
ExactMatchLen: 8
AlignOverLongerSeq: 70
MatchSimilarity: 55
OptimalScoreOverSelfScore: 35
Open: 12
Gap: 2
Alphabet: ACDEFGHIKLMNPQRSTVWY

SkipPrefixes: ^XX.* ^NN.*
`)
	p, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.WindowSize != 5 || p.ExactMatchLen != 8 {
		t.Fatalf("bucketing params not parsed: %+v", p)
	}
	if p.AOL != 70 || p.SIM != 55 || p.OS != 35 {
		t.Fatalf("edge thresholds not parsed: %+v", p)
	}
	if p.Open != 12 || p.Gap != 2 {
		t.Fatalf("gap penalties not parsed: %+v", p)
	}
	if len(p.SkipPrefixes) != 2 {
		t.Fatalf("expected 2 skip prefixes, got %d", len(p.SkipPrefixes))
	}
	if !p.SkipPrefixes[0].MatchString("XXAB") {
		t.Fatalf("first skip prefix should match XXAB")
	}
}

func TestLoadRejectsUnrecognizedKey(t *testing.T) {
	_, err := Load(strings.NewReader("NotAKey: 1\n"))
	if err == nil {
		t.Fatal("expected error for unrecognized key")
	}
}

func TestLoadRejectsOutOfRangePercent(t *testing.T) {
	_, err := Load(strings.NewReader("AlignOverLongerSeq: 150\n"))
	if err == nil {
		t.Fatal("expected validation error for AOL=150")
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	p := Default()
	p.AOL = 77
	p.WindowSize = 9

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load after Write: %v", err)
	}
	if got.AOL != 77 || got.WindowSize != 9 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
