package seqstore

import (
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
)

// Record is one scanned FASTA record: a name and its residues, before
// packing.
type Record struct {
	Name     string
	Residues []byte
}

// ScanFasta reads every record from r using biogo's FASTA reader over
// a linear.Seq template with the protein alphabet, since the store
// holds protein/DNA residues generically rather than committing to
// DNA-only machinery.
func ScanFasta(r io.Reader) ([]Record, error) {
	template := linear.NewSeq("", nil, alphabet.Protein)
	reader := fasta.NewReader(r, template)
	scanner := seqio.NewScanner(reader)

	var records []Record
	for scanner.Next() {
		s, ok := scanner.Seq().(*linear.Seq)
		if !ok {
			return nil, errors.New("seqstore: unexpected sequence type from fasta scanner")
		}
		residues := make([]byte, len(s.Seq))
		for i, letter := range s.Seq {
			residues[i] = byte(letter)
		}
		records = append(records, Record{Name: s.Name(), Residues: residues})
	}
	if err := scanner.Error(); err != nil {
		return nil, errors.Wrap(err, "seqstore: scanning fasta input")
	}
	if len(records) == 0 {
		return nil, errors.New("seqstore: no fasta records found")
	}
	return records, nil
}
