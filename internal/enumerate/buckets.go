package enumerate

import (
	"regexp"

	farm "github.com/dgryski/go-farm"

	"github.com/pkg/errors"
)

// Bucket is one k-mer bucket: every suffix whose first WindowSize
// bytes encode the same BID.
type Bucket struct {
	BID        int64
	Suffixes   []int32
	SkippedOut bool
}

// Buckets partitions a set of suffix positions (typically idx.SA over
// idx.BupStart:idx.BupStop) into k-mer buckets of WindowSize bytes,
// keyed by a mixed-radix encoding over the alphabet.
type Buckets struct {
	WindowSize int
	Alphabet   string
	table      [256]int
	byID       map[int64]*Bucket
}

// NewBuckets builds the byte -> alphabet-index lookup table used to
// encode k-mers.
func NewBuckets(alphabet string, windowSize int) *Buckets {
	b := &Buckets{WindowSize: windowSize, Alphabet: alphabet, byID: make(map[int64]*Bucket)}
	for i := range b.table {
		b.table[i] = -1
	}
	for i, c := range []byte(alphabet) {
		b.table[c] = i
	}
	return b
}

// ErrNotInAlphabet reports a k-mer byte outside the configured
// alphabet.
var ErrNotInAlphabet = errors.New("enumerate: k-mer byte not in configured alphabet")

// BucketIndex computes bid for a WindowSize-byte k-mer via mixed-radix
// (base-SIGMA) encoding: value = value*SIGMA + index, one digit per
// character.
func (b *Buckets) BucketIndex(kmer []byte) (int64, error) {
	var value int64
	sigma := int64(len(b.Alphabet))
	for i := 0; i < b.WindowSize; i++ {
		idx := b.table[kmer[i]]
		if idx < 0 {
			return 0, errors.Wrapf(ErrNotInAlphabet, "byte %q at offset %d", kmer[i], i)
		}
		value = value*sigma + int64(idx)
	}
	return value, nil
}

// Kmer decodes bid back into its window_size-byte k-mer, the inverse
// of BucketIndex.
func (b *Buckets) Kmer(bid int64) []byte {
	sigma := int64(len(b.Alphabet))
	kmer := make([]byte, b.WindowSize)
	for i := b.WindowSize - 1; i >= 0; i-- {
		kmer[i] = b.Alphabet[bid%sigma]
		bid /= sigma
	}
	return kmer
}

// Insert places suffix position p, whose first WindowSize bytes
// starting at p in t form its k-mer, into its bucket. Suffixes whose
// k-mer runs off the end of t or contains a byte outside the alphabet
// (a sentinel, or a record-header byte) are invalid and filtered out
// before insertion, never bucketed.
func (b *Buckets) Insert(t []byte, p int32) {
	if int(p)+b.WindowSize > len(t) {
		return
	}
	var value int64
	sigma := int64(len(b.Alphabet))
	for _, c := range t[p : int(p)+b.WindowSize] {
		idx := b.table[c]
		if idx < 0 {
			return
		}
		value = value*sigma + int64(idx)
	}
	bucket, ok := b.byID[value]
	if !ok {
		bucket = &Bucket{BID: value}
		b.byID[value] = bucket
	}
	bucket.Suffixes = append(bucket.Suffixes, p)
}

// ApplySkipPrefixes marks every bucket whose k-mer matches one of the
// configured skip patterns, so All leaves it out of enumeration.
func (b *Buckets) ApplySkipPrefixes(patterns []*regexp.Regexp) {
	if len(patterns) == 0 {
		return
	}
	for _, bucket := range b.byID {
		kmer := b.Kmer(bucket.BID)
		for _, re := range patterns {
			if re.Match(kmer) {
				bucket.SkippedOut = true
				break
			}
		}
	}
}

// Bucket returns the bucket for bid, or nil if it is empty.
func (b *Buckets) Bucket(bid int64) *Bucket {
	return b.byID[bid]
}

// All returns every non-empty, non-skipped bucket, in ascending BID
// order.
func (b *Buckets) All() []*Bucket {
	out := make([]*Bucket, 0, len(b.byID))
	for _, bucket := range b.byID {
		if bucket.SkippedOut {
			continue
		}
		out = append(out, bucket)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].BID > out[j].BID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Owner assigns bucket bid to a rank out of nproc ranks. Bids are
// farm-hashed before the modulus so that adjacent bids, which share a
// long common k-mer prefix and would otherwise land on consecutive
// ranks, spread evenly across the cluster.
func Owner(bid int64, nproc int) int {
	if nproc <= 0 {
		return 0
	}
	h := farm.Hash64WithSeed(int64ToBytes(bid), 0)
	return int(h % uint64(nproc))
}

func int64ToBytes(v int64) []byte {
	var buf [8]byte
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	return buf[:]
}
