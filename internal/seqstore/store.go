// Package seqstore implements the shared-memory sequence store: a
// two-phase pack/index pipeline over a packed, sentinel-delimited
// multi-FASTA buffer, shared across local workers by memory mapping
// rather than copying.
package seqstore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Sentinel is the default record-terminating byte.
// NulDelim is an alternate delimiter callers may configure instead.
const (
	Sentinel = '$'
	NulDelim = 0
)

// pollInterval is how often a non-packing process re-checks for the
// leading '>' byte while another process on the node is still packing.
const pollInterval = time.Millisecond

// Store owns one contiguous packed buffer T[0..N) and the per-sequence
// {begin,end} index. It never copies sequence bytes out to callers;
// Get returns a view.
type Store struct {
	t        []byte
	ids      []string
	begin    []int
	end      []int
	maxLen   int
	delim    byte
	unmapper func() error // nil for heap-backed stores
}

// Pack reads raw FASTA records and rewrites them into the packed,
// sentinel-delimited internal format: ">id#SEQUENCE<delim>" repeated,
// with newlines inside the id replaced by '#', and all
// whitespace/newlines inside the sequence removed.
func Pack(records []Record, delim byte) ([]byte, error) {
	if len(records) == 0 {
		return nil, errors.New("seqstore: cannot pack zero records")
	}
	var buf bytes.Buffer
	for _, rec := range records {
		residues := stripWhitespace(rec.Residues)
		if len(residues) == 0 {
			return nil, errors.Errorf("seqstore: record %q has no residues after packing", rec.Name)
		}
		buf.WriteByte('>')
		buf.WriteString(sanitizeID(rec.Name))
		buf.WriteByte('#')
		buf.Write(residues)
		buf.WriteByte(delim)
	}
	return buf.Bytes(), nil
}

func sanitizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c == '\n' || c == '\r' {
			c = '#'
		}
		out[i] = c
	}
	return string(out)
}

func stripWhitespace(residues []byte) []byte {
	out := make([]byte, 0, len(residues))
	for _, c := range residues {
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}

// New indexes an already-packed buffer held in memory (no mmap). It is
// the entry point used by tests and by in-process (non-distributed)
// runs where sharing across processes is not required.
func New(packed []byte, delim byte) (*Store, error) {
	return index(packed, delim, nil)
}

// index scans the packed buffer and emits {begin,end} per sequence plus
// the maximum sequence length. Every sequence must end with exactly one
// delim byte.
func index(packed []byte, delim byte, unmapper func() error) (*Store, error) {
	if len(packed) == 0 || packed[0] != '>' {
		return nil, errors.New("seqstore: packed buffer does not start with '>' (malformed or truncated pack)")
	}

	var (
		ids    []string
		begin  []int
		end    []int
		maxLen int
	)

	pos := 0
	n := len(packed)
	for pos < n {
		if packed[pos] != '>' {
			return nil, errors.Errorf("seqstore: expected '>' at offset %d", pos)
		}
		pos++
		idStart := pos
		for pos < n && packed[pos] != '#' {
			pos++
		}
		if pos >= n {
			return nil, errors.New("seqstore: truncated record: missing '#' id separator")
		}
		id := string(packed[idStart:pos])
		pos++ // skip '#'

		seqStart := pos
		for pos < n && packed[pos] != delim {
			pos++
		}
		if pos >= n {
			return nil, errors.New("seqstore: truncated record: missing terminating sentinel")
		}
		seqEnd := pos
		if seqEnd == seqStart {
			return nil, errors.Errorf("seqstore: record %q has an empty sequence", id)
		}
		// An embedded sentinel/delimiter inside the sequence body is
		// already excluded by construction since we scanned up to the
		// first delim, but a second consecutive delim with nothing
		// between records is still a malformed pack (two sentinels,
		// zero-length record) and is caught above.
		pos++ // skip delim/sentinel

		ids = append(ids, id)
		begin = append(begin, seqStart)
		end = append(end, seqEnd)
		if l := seqEnd - seqStart; l > maxLen {
			maxLen = l
		}
	}

	if len(ids) == 0 {
		return nil, errors.New("seqstore: no sentinel found in input")
	}

	return &Store{
		t:        packed,
		ids:      ids,
		begin:    begin,
		end:      end,
		maxLen:   maxLen,
		delim:    delim,
		unmapper: unmapper,
	}, nil
}

// SharedPath derives the per-run path of the node-shared packed-buffer
// object: "pgraph" + the packer's startup time in unix microseconds +
// its pid, under dir. The packer stamps the name once and hands it to
// the other local ranks, who map the same object; it must be unlinked
// at clean shutdown.
func SharedPath(dir string, unixMicros int64, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("pgraph%d%d", unixMicros, pid))
}

// waitForPack busy-waits until buf's first byte is '>', at which point
// the packing process has finished writing and the buffer is safe to
// index. A zero-length buffer never satisfies this and will spin until
// deadline.
func waitForPack(buf []byte, deadline time.Time) error {
	for {
		if len(buf) > 0 && buf[0] == '>' {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("seqstore: timed out waiting for packing process to write leading '>'")
		}
		time.Sleep(pollInterval)
	}
}

// Size returns the number of sequences in the store.
func (s *Store) Size() int { return len(s.ids) }

// GlobalCount is the same as Size for a single-node store; distributed
// variants that shard sequences across nodes override it to report the
// cluster-wide total.
func (s *Store) GlobalCount() int { return s.Size() }

// MaxLen returns the longest sequence length in the store, excluding
// sentinels.
func (s *Store) MaxLen() int { return s.maxLen }

// Get returns sequence i in O(1).
func (s *Store) Get(i int) Sequence {
	return Sequence{ID: s.ids[i], Begin: s.begin[i], End: s.end[i]}
}

// Residues returns the raw residue bytes for sequence i, a view into
// the store's shared buffer -- callers must not mutate it.
func (s *Store) Residues(i int) []byte {
	return s.t[s.begin[i]:s.end[i]]
}

// Bytes returns the entire packed buffer T, for components (suffix
// array construction, bucket hashing) that need to scan the whole
// dataset rather than one sequence at a time.
func (s *Store) Bytes() []byte { return s.t }

// Delim returns the sentinel byte terminating every record.
func (s *Store) Delim() byte { return s.delim }

// Close releases any OS resources backing the store (the mmap, if
// present). It is a no-op for heap-backed stores.
func (s *Store) Close() error {
	if s.unmapper == nil {
		return nil
	}
	return s.unmapper()
}
