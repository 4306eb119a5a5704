//go:build unix

package seqstore

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// OpenMapped implements the multi-process sharing contract: exactly
// one process packs; all others wait until the first byte is '>', then
// index the same shared mapping. The store is exposed to workers via
// memory mapping (MAP_SHARED on POSIX), so all threads/processes on one
// node read the same physical pages.
//
// If isPacker is true, records is packed and written to path before
// mapping; otherwise the call maps the existing file and busy-waits
// for another process's pack to complete.
func OpenMapped(path string, isPacker bool, records []Record, delim byte, waitTimeout time.Duration) (*Store, error) {
	if isPacker {
		packed, err := Pack(records, delim)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "seqstore: creating mapped file")
		}
		if _, err := f.Write(packed); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "seqstore: writing packed bytes")
		}
		if err := f.Close(); err != nil {
			return nil, errors.Wrap(err, "seqstore: closing packed file after write")
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "seqstore: opening mapped file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "seqstore: stat mapped file")
	}
	size := int(info.Size())
	if size == 0 {
		return nil, errors.New("seqstore: mapped file is empty")
	}

	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrap(err, "seqstore: mmap failed")
	}

	if !isPacker {
		if err := waitForPack(buf, time.Now().Add(waitTimeout)); err != nil {
			unix.Munmap(buf)
			return nil, err
		}
	}

	store, err := index(buf, delim, func() error {
		return unix.Munmap(buf)
	})
	if err != nil {
		unix.Munmap(buf)
		return nil, err
	}
	return store, nil
}

// Unlink removes the backing file: the shared-memory object must be
// unlinked at clean shutdown.
func Unlink(path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Wrap(err, "seqstore: unlinking shared file")
	}
	return nil
}
