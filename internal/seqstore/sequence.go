package seqstore

// Sequence is an immutable view into a Store's packed buffer: the byte
// range [Begin, End) of the dataset alphabet, excluding the trailing
// sentinel. Sequences never own their bytes -- the Store does.
type Sequence struct {
	ID    string
	Begin int
	End   int
}

// Len returns the sequence length, excluding the sentinel.
func (s Sequence) Len() int { return s.End - s.Begin }
