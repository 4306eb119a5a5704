package taskqueue

import (
	"bytes"
	"encoding/gob"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Spiller snappy-compresses batches of Tasks once a deque's shared
// half grows past a backpressure threshold, trading CPU for memory
// when a queue holds far more candidate pairs than fit comfortably
// resident. Spilled batches are decompressed back into plain Tasks
// only when a worker actually needs more work.
type Spiller struct {
	Threshold int

	batches [][]byte
}

// MaybeSpill compresses and stores the oldest len(tail)-Threshold
// tasks as a new batch if tail exceeds Threshold, returning the
// (possibly shortened) remainder to keep resident. tail is returned
// unchanged if it is already within the threshold.
func (s *Spiller) MaybeSpill(tail []Task) ([]Task, error) {
	if len(tail) <= s.Threshold {
		return tail, nil
	}
	spillCount := len(tail) - s.Threshold
	batch, err := encodeTasks(tail[:spillCount])
	if err != nil {
		return nil, err
	}
	s.batches = append(s.batches, batch)
	return tail[spillCount:], nil
}

// Reload pops and decompresses the most recently spilled batch, or
// returns ok=false if nothing is spilled.
func (s *Spiller) Reload() ([]Task, bool, error) {
	if len(s.batches) == 0 {
		return nil, false, nil
	}
	last := s.batches[len(s.batches)-1]
	s.batches = s.batches[:len(s.batches)-1]
	tasks, err := decodeTasks(last)
	if err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}

// Spilled reports how many batches are currently off-heap.
func (s *Spiller) Spilled() int { return len(s.batches) }

func encodeTasks(tasks []Task) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tasks); err != nil {
		return nil, errors.Wrap(err, "taskqueue: encode spilled batch")
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}

func decodeTasks(compressed []byte) ([]Task, error) {
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "taskqueue: snappy decode")
	}
	var tasks []Task
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&tasks); err != nil {
		return nil, errors.Wrap(err, "taskqueue: decode spilled batch")
	}
	return tasks, nil
}
