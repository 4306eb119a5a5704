//go:build !unix

package seqstore

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

// OpenMapped is the non-POSIX fallback: it has the same pack/wait/index
// contract as the unix implementation but backs the buffer with a
// plain heap read instead of mmap, since MAP_SHARED has no portable
// equivalent outside unix. Cross-process sharing of the backing pages
// is lost on this path; only the pack/index protocol is preserved.
func OpenMapped(path string, isPacker bool, records []Record, delim byte, waitTimeout time.Duration) (*Store, error) {
	if isPacker {
		packed, err := Pack(records, delim)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, packed, 0o644); err != nil {
			return nil, errors.Wrap(err, "seqstore: writing packed file")
		}
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "seqstore: reading packed file")
	}
	if !isPacker {
		if err := waitForPack(buf, time.Now().Add(waitTimeout)); err != nil {
			return nil, err
		}
	}
	return index(buf, delim, nil)
}

// Unlink removes the backing file.
func Unlink(path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Wrap(err, "seqstore: unlinking shared file")
	}
	return nil
}
