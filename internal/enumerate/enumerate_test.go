package enumerate

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/Yatin-Singla/pgraph-tascel/internal/suffix"
)

func mustBuild(t *testing.T, text string) *suffix.Index {
	t.Helper()
	idx, err := suffix.Build([]byte(text), '$')
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

// TestExactMatchCutoffPairs checks that a dataset of two identical
// 8-mers plus a short third sequence, with a cutoff of 4, emits
// exactly {(x,y)}; z is never paired.
func TestExactMatchCutoffPairs(t *testing.T) {
	idx := mustBuild(t, ">x#AAAAAAAA$>y#AAAAAAAA$>z#CCCC$")
	pairs := BottomUp(idx, 4)
	if len(pairs) != 1 {
		t.Fatalf("expected exactly 1 pair, got %v", pairs)
	}
	if pairs[0] != (Pair{A: 0, B: 1}) {
		t.Fatalf("expected pair (0,1) [x,y], got %v", pairs[0])
	}
}

func TestRecursiveTreeAgreesOnCutoffDataset(t *testing.T) {
	idx := mustBuild(t, ">x#AAAAAAAA$>y#AAAAAAAA$>z#CCCC$")
	pairs := RecursiveTree(idx, 4)
	if len(pairs) != 1 || pairs[0] != (Pair{A: 0, B: 1}) {
		t.Fatalf("expected exactly {(0,1)}, got %v", pairs)
	}
}

func TestPairDedupNoDuplicates(t *testing.T) {
	idx := mustBuild(t, "ACGTACGT$ACGTACGT$ACGTACGT$")
	pairs := BottomUp(idx, 2)
	seen := make(map[Pair]bool)
	for _, p := range pairs {
		if seen[p] {
			t.Fatalf("duplicate pair %v in emitted set", p)
		}
		seen[p] = true
	}
}

func TestBottomUpNeverEmitsSameSequencePair(t *testing.T) {
	idx := mustBuild(t, "AAAA$AAAA$AAAA$GGGG$")
	pairs := BottomUp(idx, 1)
	for _, p := range pairs {
		if p.A == p.B {
			t.Fatalf("emitted a same-sequence pair: %v", p)
		}
	}
}

// TestCrossChildPairsEmitted forces an internal LCP interval with two
// non-singleton children: all four sequences share "GGGG", while
// {s0,s1} extend it as "GGGGAA" and {s2,s3} as "GGGGTT", so the
// length-4 interval has the two length-6 intervals as children and the
// cross pairs (0,2),(0,3),(1,2),(1,3) exist only as that interval's
// cross-child product. With a cutoff of 4 every one of the six pairs
// must come out.
func TestCrossChildPairsEmitted(t *testing.T) {
	idx := mustBuild(t, "GGGGAAC$GGGGAAT$GGGGTTA$GGGGTTC$")
	pairs := BottomUp(idx, 4)
	want := []Pair{
		{A: 0, B: 1}, {A: 0, B: 2}, {A: 0, B: 3},
		{A: 1, B: 2}, {A: 1, B: 3}, {A: 2, B: 3},
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %v", len(want), pairs)
	}
	for i, p := range want {
		if pairs[i] != p {
			t.Fatalf("pair %d = %v, want %v (full set %v)", i, pairs[i], p, pairs)
		}
	}
}

// TestCandidateSuperset checks the candidate-superset property: any
// two sequences that share an exact substring of length >= EM must
// appear in BottomUp's emitted set.
func TestCandidateSuperset(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("ACGT")
	const em = 5

	for trial := 0; trial < 15; trial++ {
		shared := randSeq(rng, alphabet, em+rng.Intn(4))
		n := 3 + rng.Intn(3)
		var seqs [][]byte
		for i := 0; i < n; i++ {
			s := randSeq(rng, alphabet, 4+rng.Intn(6))
			s = append(s, shared...)
			s = append(s, randSeq(rng, alphabet, 4+rng.Intn(6))...)
			seqs = append(seqs, s)
		}
		// Every sequence shares `shared` with every other: all pairs
		// must be candidates.
		text := packFlat(seqs)
		idx, err := suffix.Build(text, '$')
		if err != nil {
			t.Fatal(err)
		}
		pairs := BottomUp(idx, em)
		want := make(map[Pair]bool)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				want[Pair{A: int32(i), B: int32(j)}] = true
			}
		}
		got := make(map[Pair]bool)
		for _, p := range pairs {
			got[p] = true
		}
		for p := range want {
			if !got[p] {
				t.Fatalf("trial %d: missing expected candidate pair %v (shared=%q)", trial, p, shared)
			}
		}
	}
}

func randSeq(rng *rand.Rand, alphabet []byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return out
}

func packFlat(seqs [][]byte) []byte {
	var out []byte
	for _, s := range seqs {
		out = append(out, s...)
		out = append(out, '$')
	}
	return out
}

func TestRecursiveTreeCandidateSuperset(t *testing.T) {
	idx := mustBuild(t, "GATTACAGATTACA$GATTACAXXXXXXXX$YYYYYYYYYYYYYY$")
	pairs := RecursiveTree(idx, 6)
	found := false
	for _, p := range pairs {
		if p == (Pair{A: 0, B: 1}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected RecursiveTree to find the shared GATTACA prefix pair, got %v", pairs)
	}
}

func TestBucketedTreeAgreesOnCutoffDataset(t *testing.T) {
	idx := mustBuild(t, ">x#AAAAAAAA$>y#AAAAAAAA$>z#CCCC$")
	pairs := BucketedTree(idx, "ACGT", 3, 4, nil)
	if len(pairs) != 1 || pairs[0] != (Pair{A: 0, B: 1}) {
		t.Fatalf("expected exactly {(0,1)}, got %v", pairs)
	}
}

func TestBucketedTreeSkipPrefixesDiscardsBucket(t *testing.T) {
	idx := mustBuild(t, ">x#AAAA$>y#AAAA$")
	if pairs := BucketedTree(idx, "ACGT", 3, 4, nil); len(pairs) != 1 {
		t.Fatalf("without skips, expected {(0,1)}, got %v", pairs)
	}
	skip := []*regexp.Regexp{regexp.MustCompile("^AAA")}
	if pairs := BucketedTree(idx, "ACGT", 3, 4, skip); len(pairs) != 0 {
		t.Fatalf("with ^AAA skipped, expected no pairs, got %v", pairs)
	}
}

func TestBucketIndexRoundTrip(t *testing.T) {
	b := NewBuckets("ACGT", 3)
	bid, err := b.BucketIndex([]byte("ACG"))
	if err != nil {
		t.Fatal(err)
	}
	// A=0,C=1,G=2 in base-4: 0*16+1*4+2 = 6
	if bid != 6 {
		t.Fatalf("BucketIndex(ACG) = %d, want 6", bid)
	}
}

func TestBucketIndexRejectsOutOfAlphabet(t *testing.T) {
	b := NewBuckets("ACGT", 3)
	if _, err := b.BucketIndex([]byte("ACN")); err == nil {
		t.Fatal("expected error for out-of-alphabet byte")
	}
}

func TestKmerInvertsBucketIndex(t *testing.T) {
	b := NewBuckets("ACGT", 3)
	for _, kmer := range []string{"AAA", "ACG", "TTT", "GAT"} {
		bid, err := b.BucketIndex([]byte(kmer))
		if err != nil {
			t.Fatal(err)
		}
		if got := string(b.Kmer(bid)); got != kmer {
			t.Fatalf("Kmer(BucketIndex(%q)) = %q", kmer, got)
		}
	}
}

func TestInsertFiltersInvalidSuffixes(t *testing.T) {
	b := NewBuckets("ACGT", 3)
	text := []byte("AC$ACGT$")
	for p := int32(0); p < int32(len(text)); p++ {
		b.Insert(text, p)
	}
	// Only "ACG" (position 3) and "CGT" (position 4) are fully inside
	// the alphabet; every window touching '$' or running off the end is
	// filtered before insertion.
	all := b.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(all))
	}
	for _, bucket := range all {
		if len(bucket.Suffixes) != 1 {
			t.Fatalf("bucket %d has %d suffixes, want 1", bucket.BID, len(bucket.Suffixes))
		}
	}
}

func TestOwnerDistributesAcrossRanks(t *testing.T) {
	seen := make(map[int]bool)
	for bid := int64(0); bid < 200; bid++ {
		seen[Owner(bid, 4)] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected buckets to spread across all 4 ranks, got ranks %v", seen)
	}
}
